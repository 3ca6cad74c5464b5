package reporter

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/nhle/notistore/internal/model"
)

// MaxIcons bounds the number of application icons in a rollup.
const MaxIcons = 10

// AppIcon is one entry of the rollup's icon strip.
type AppIcon struct {
	PackageName string
	AppName     string
	Image       string
	Fallback    bool
}

// Rollup summarizes recent notification activity.
type Rollup struct {
	Count     int
	CountText string
	Icons     []AppIcon
}

// FilterBlank drops records whose message is empty or whitespace.
func FilterBlank(recs []model.Record) []model.Record {
	out := make([]model.Record, 0, len(recs))
	for _, r := range recs {
		if strings.TrimSpace(r.Message) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CountText renders the rollup headline.
func CountText(n int) string {
	switch n {
	case 0:
		return "No new notifications"
	case 1:
		return "1 new notification"
	default:
		return fmt.Sprintf("%d new notifications", n)
	}
}

// Compute builds a rollup from records that are already filtered. The
// icon strip holds distinct packages, most recently notified first,
// capped at maxIcons. Failed icon lookups use FallbackIcon and are
// reported through onFallback (which may be nil).
func Compute(
	ctx context.Context,
	recs []model.Record,
	resolver IconResolver,
	maxIcons int,
	onFallback func(pkg string, err error),
) Rollup {
	if maxIcons <= 0 {
		maxIcons = MaxIcons
	}

	r := Rollup{Count: len(recs), CountText: CountText(len(recs))}
	if len(recs) == 0 {
		r.Icons = []AppIcon{{Image: PlaceholderIcon, Fallback: true}}
		return r
	}

	for _, rec := range latestPerPackage(recs, maxIcons) {
		icon := AppIcon{PackageName: rec.PackageName, AppName: rec.AppName}
		img, err := resolveIcon(ctx, resolver, rec)
		if err != nil {
			if onFallback != nil {
				onFallback(rec.PackageName, err)
			}
			img = FallbackIcon
			icon.Fallback = true
		}
		icon.Image = img
		r.Icons = append(r.Icons, icon)
	}
	return r
}

// latestPerPackage returns the newest record of each package, newest
// first, at most limit entries. Input order is not relied upon.
func latestPerPackage(recs []model.Record, limit int) []model.Record {
	newest := make(map[string]model.Record)
	for _, rec := range recs {
		cur, ok := newest[rec.PackageName]
		if !ok || rec.Timestamp > cur.Timestamp ||
			(rec.Timestamp == cur.Timestamp && rec.ID > cur.ID) {
			newest[rec.PackageName] = rec
		}
	}

	out := make([]model.Record, 0, len(newest))
	for _, rec := range newest {
		out = append(out, rec)
	}
	sortNewestFirst(out)

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func resolveIcon(ctx context.Context, resolver IconResolver, rec model.Record) (img string, err error) {
	if resolver == nil {
		return "", ErrIconNotFound
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("icon lookup for %s panicked: %v", rec.PackageName, p)
		}
	}()
	return resolver.Resolve(ctx, rec.PackageName, rec.AppIcon)
}

func sortNewestFirst(recs []model.Record) {
	slices.SortFunc(recs, func(a, b model.Record) int {
		if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
