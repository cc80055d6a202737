package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/service"
	"github.com/spec-kit/support-insights/internal/store"
	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

// parseSelection reads ?categories= and ?tags=. An absent categories
// parameter selects every category; a present but empty one selects none.
// An absent tags parameter disables tag filtering.
func parseSelection(c *fiber.Ctx) (service.Selection, error) {
	args := c.Context().QueryArgs()
	var sel service.Selection

	if args.Has("categories") {
		cats, err := parseCategories(splitList(c.Query("categories")))
		if err != nil {
			return sel, err
		}
		sel.Categories = cats
	} else {
		sel.Categories = domain.Categories()
	}

	if args.Has("tags") {
		filter, err := parseTagFilter(splitList(c.Query("tags")))
		if err != nil {
			return sel, err
		}
		sel.Tags = filter
	}
	return sel, nil
}

func parseCategories(labels []string) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(labels))
	for _, label := range labels {
		cat, ok := domain.ParseCategory(label)
		if !ok {
			return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": label})
		}
		out = append(out, cat)
	}
	return out, nil
}

func parseTagFilter(raw []string) (*store.TagFilter, error) {
	filter := &store.TagFilter{Tags: make([]domain.Tag, 0, len(raw))}
	for _, r := range raw {
		tag, ok := domain.ParseTag(r)
		if !ok {
			return nil, apperrors.NewValidationError("invalid tag", map[string]any{"tag": r})
		}
		filter.Tags = append(filter.Tags, tag)
	}
	return filter, nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

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
