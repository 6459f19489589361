// redact — маскирование секретов в логах. Токены и пароли никогда не
// попадают в вывод целиком.
package redact

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }

// Cursor обрезает непрозрачный курсор до безопасного префикса:
// сам по себе он не секрет, но может содержать идентификаторы сообщений.
func Cursor(s string) string {
	if len(s) <= 8 {
		return s
	}

	return s[:8] + "..."
}
