package main

// Команды аутентификации и привязки VK-аккаунта.

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Вход по логину и паролю",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				// Пароль не светим в истории шелла: читаем со stdin.
				fmt.Fprint(os.Stderr, "Пароль: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}

			userID, err := a.client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			return printJSON(map[string]any{"userId": userID})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "имя пользователя")
	cmd.Flags().StringVarP(&password, "password", "p", "", "пароль (по умолчанию запрашивается)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Завершить сессию и удалить сохранённые учётные данные",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.client.Logout(cmd.Context())
		},
	}
}

func newMeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Текущая привязка VK-аккаунта",
		RunE: func(cmd *cobra.Command, _ []string) error {
			binding, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}

			return printJSON(binding)
		},
	}
}

func newLinkVKCmd(a *app) *cobra.Command {
	var vkID int64
	var vkToken string

	cmd := &cobra.Command{
		Use:   "link-vk",
		Short: "Привязать VK-аккаунт (токен и идентификатор)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.client.UpdateUser(cmd.Context(), vkID, vkToken)
			if err != nil {
				return err
			}

			if user == nil {
				// Бэкенд подтвердил обновление пустым телом.
				return printJSON(map[string]any{"updated": true})
			}

			return printJSON(user)
		},
	}

	cmd.Flags().Int64Var(&vkID, "vk-id", 0, "идентификатор пользователя VK")
	cmd.Flags().StringVar(&vkToken, "vk-token", "", "токен VK API")
	_ = cmd.MarkFlagRequired("vk-id")
	_ = cmd.MarkFlagRequired("vk-token")

	return cmd
}
