package tagservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/tagsvc"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) Tags(ctx context.Context, a authsvc.Identity) (t []tagsvc.Tag, err error) {
	defer func() {
		mw.logger.Log("method", "Tags", "user_id", a.UserID, "count", len(t), "err", err)
	}()
	return mw.next.Tags(ctx, a)
}

func (mw loggingMiddleware) Tag(ctx context.Context, a authsvc.Identity, tagID uint64) (t tagsvc.Tag, err error) {
	defer func() {
		mw.logger.Log("method", "Tag", "user_id", a.UserID, "tag_id", tagID, "err", err)
	}()
	return mw.next.Tag(ctx, a, tagID)
}

func (mw loggingMiddleware) CreateTag(ctx context.Context, a authsvc.Identity, name, color string) (t tagsvc.Tag, err error) {
	defer func() {
		mw.logger.Log(
			"method", "CreateTag",
			"user_id", a.UserID,
			"name", name,
			"color", color,
			"tag_id", t.ID,
			"err", err,
		)
	}()
	return mw.next.CreateTag(ctx, a, name, color)
}

func (mw loggingMiddleware) UpdateTag(ctx context.Context, a authsvc.Identity, tagID uint64, name, color string) (t tagsvc.Tag, err error) {
	defer func() {
		mw.logger.Log(
			"method", "UpdateTag",
			"user_id", a.UserID,
			"tag_id", tagID,
			"name", name,
			"color", color,
			"err", err,
		)
	}()
	return mw.next.UpdateTag(ctx, a, tagID, name, color)
}

func (mw loggingMiddleware) DeleteTag(ctx context.Context, a authsvc.Identity, tagID uint64) (err error) {
	defer func() {
		mw.logger.Log("method", "DeleteTag", "user_id", a.UserID, "tag_id", tagID, "err", err)
	}()
	return mw.next.DeleteTag(ctx, a, tagID)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) observe(method string, begin time.Time) {
	mw.requestCount.With("method", method).Add(1)
	mw.requestLatency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mw instrumentingMiddleware) Tags(ctx context.Context, a authsvc.Identity) ([]tagsvc.Tag, error) {
	defer mw.observe("tags", time.Now())
	return mw.next.Tags(ctx, a)
}

func (mw instrumentingMiddleware) Tag(ctx context.Context, a authsvc.Identity, tagID uint64) (tagsvc.Tag, error) {
	defer mw.observe("tag", time.Now())
	return mw.next.Tag(ctx, a, tagID)
}

func (mw instrumentingMiddleware) CreateTag(ctx context.Context, a authsvc.Identity, name, color string) (tagsvc.Tag, error) {
	defer mw.observe("create_tag", time.Now())
	return mw.next.CreateTag(ctx, a, name, color)
}

func (mw instrumentingMiddleware) UpdateTag(ctx context.Context, a authsvc.Identity, tagID uint64, name, color string) (tagsvc.Tag, error) {
	defer mw.observe("update_tag", time.Now())
	return mw.next.UpdateTag(ctx, a, tagID, name, color)
}

func (mw instrumentingMiddleware) DeleteTag(ctx context.Context, a authsvc.Identity, tagID uint64) error {
	defer mw.observe("delete_tag", time.Now())
	return mw.next.DeleteTag(ctx, a, tagID)
}
