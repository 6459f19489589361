package main

// Команды лент: список диалогов и вложения выбранного диалога.
// Флаг --all гоняет LoadNext до исчерпания ленты — консольная замена
// триггера прокрутки.

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pomnesh/pomnesh-go/internal/feed"
	"github.com/pomnesh/pomnesh-go/internal/models"
)

func newChatsCmd(a *app) *cobra.Command {
	var all bool
	var pageSize int

	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Список диалогов",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pageSize <= 0 {
				pageSize = a.cfg.Feeds.ChatPageSize
			}

			chats := feed.NewChats(a.client, pageSize)
			if err := drain(cmd.Context(), chats.LoadNext, all); err != nil {
				return err
			}

			return printJSON(map[string]any{
				"items": chats.Items(),
				"total": chats.Total(),
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "загрузить все страницы")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "размер страницы")

	return cmd
}

func newAttachmentsCmd(a *app) *cobra.Command {
	var (
		all             bool
		pageSize        int
		peerID          int64
		typesFlag       []string
		includeForwards bool
	)

	cmd := &cobra.Command{
		Use:   "attachments",
		Short: "Вложения выбранного диалога",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pageSize <= 0 {
				pageSize = a.cfg.Feeds.AttachmentPageSize
			}

			types := make([]models.AttachmentType, 0, len(typesFlag))
			for _, t := range typesFlag {
				types = append(types, models.AttachmentType(strings.TrimSpace(t)))
			}

			attachments := feed.NewAttachments(a.client, pageSize, feed.AttachmentFilter{
				PeerID:          peerID,
				Types:           types,
				IncludeForwards: includeForwards,
			})
			if err := drain(cmd.Context(), attachments.LoadNext, all); err != nil {
				return err
			}

			return printJSON(map[string]any{"items": attachments.Items()})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "загрузить все страницы")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "размер страницы")
	cmd.Flags().Int64Var(&peerID, "peer", 0, "peer_id диалога")
	cmd.Flags().StringSliceVar(&typesFlag, "types", nil, "фильтр по типам: photo,video,doc,audio,link")
	cmd.Flags().BoolVar(&includeForwards, "include-forwards", false, "включать вложения пересланных сообщений")
	_ = cmd.MarkFlagRequired("peer")

	return cmd
}

// drain — одна страница или все до конца ленты.
func drain(ctx context.Context, loadNext func(context.Context) (bool, error), all bool) error {
	for {
		loaded, err := loadNext(ctx)
		if err != nil {
			return err
		}

		if !all || !loaded {
			return nil
		}
	}
}
