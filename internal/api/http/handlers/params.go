package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldops/fieldservice/internal/domain"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// pagination reads page and page_size into limit and offset.
func pagination(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func optionalForm(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.FormValue(key))
	if val == "" {
		return nil
	}
	return &val
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDateQuery(c *fiber.Ctx, key string) (*domain.Date, error) {
	val := c.Query(key)
	if val == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date", map[string]any{key: "expected YYYY-MM-DD"})
	}
	return &d, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// readFile loads one multipart part, refusing parts over limit bytes.
func readFile(fh *multipart.FileHeader, limit int) ([]byte, error) {
	if limit > 0 && fh.Size > int64(limit) {
		return nil, apperrors.NewValidationError("file too large", map[string]any{
			"file":      fh.Filename,
			"max_bytes": limit,
		})
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func contentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get(fiber.HeaderContentType); ct != "" {
		return ct
	}
	return fiber.MIMEOctetStream
}
