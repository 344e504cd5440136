package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"portfolio-site/internal/domain"
	"portfolio-site/internal/feature/search"
)

const (
	maxLabelLen    = 255
	maxResultIDLen = 64
)

type ClickRequest struct {
	Query         string
	ClickedResult string
	ResultType    string
	ResultID      string
}

type ClickTracker struct {
	content  domain.ContentRepository
	searches domain.SearchRepository
	log      *zap.Logger
}

func NewClickTracker(content domain.ContentRepository, searches domain.SearchRepository, l *zap.Logger) *ClickTracker {
	return &ClickTracker{content: content, searches: searches, log: l}
}

type parsedClick struct {
	key   string
	label string
	kind  *domain.ContentKind
	id    string
}

func parseClick(req ClickRequest) (parsedClick, error) {
	var (
		p   parsedClick
		err error
		all domain.ValidationError
	)
	add := func(e error) {
		var ve *domain.ValidationError
		if errors.As(e, &ve) {
			all.Fields = append(all.Fields, ve.Fields...)
		}
	}
	if p.key, err = search.Key(req.Query); err != nil {
		add(err)
	}
	p.label = strings.TrimSpace(req.ClickedResult)
	switch {
	case p.label == "":
		add(domain.Invalid("clickedResult", "is required"))
	case utf8.RuneCountInString(p.label) > maxLabelLen:
		add(domain.Invalid("clickedResult", "must be at most 255 characters"))
	}
	if p.kind, err = search.ParseKind("resultType", strings.TrimSpace(req.ResultType)); err != nil {
		add(err)
	}
	p.id = strings.TrimSpace(req.ResultID)
	if len(p.id) > maxResultIDLen {
		add(domain.Invalid("resultId", "is too long"))
	}
	if len(all.Fields) > 0 {
		return p, &all
	}
	return p, nil
}

// Track 点击计数、回填搜索历史、内容浏览数；被点击内容已删除时静默忽略
func (t *ClickTracker) Track(ctx context.Context, req ClickRequest) error {
	p, err := parseClick(req)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := t.searches.IncrementClick(ctx, p.key); err != nil {
		return t.fail("click.increment", p.key, err)
	}
	n, err := t.searches.AttributeClick(ctx, p.key, p.label)
	if err != nil {
		return t.fail("click.attribute", p.key, err)
	}
	if p.kind != nil && p.kind.HasViews() && p.id != "" {
		err := t.content.IncrementViews(ctx, *p.kind, p.id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			t.log.Debug("clicked content missing", zap.String("type", string(*p.kind)), zap.String("id", p.id))
		case err != nil:
			return t.fail("click.views", p.key, err)
		}
	}
	label := "unknown"
	if p.kind != nil {
		label = string(*p.kind)
	}
	clickTotal.WithLabelValues(label).Inc()
	t.log.Debug("click tracked", zap.String("key", p.key), zap.Int64("attributed", n))
	return nil
}

func (t *ClickTracker) fail(op, key string, err error) error {
	t.log.Error("click tracking failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
