package catalog

import (
	"log/slog"
	"path"

	"github.com/starford/dailybrief/internal/models"
	"github.com/starford/dailybrief/internal/recovery"
	"github.com/starford/dailybrief/internal/storage"
)

// Sync walks the posts directory and brings the catalog up to date:
//   - new or changed post files are recovered and upserted
//   - posts whose file is gone are deleted
//
// Files without a date in their name are ignored, as in recovery.
func Sync(db Store, store storage.Provider, postsDir string, logger *slog.Logger) error {
	metas, err := store.List(postsDir, ".html")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		date, err := recovery.DateFromName(path.Base(m.Path))
		if err != nil {
			continue
		}
		row := PostRow{
			Slug:      date.Format(models.SlugLayout),
			Date:      date,
			Path:      m.Path,
			Checksum:  m.Checksum,
			UpdatedAt: m.UpdatedAt,
		}
		if _, dup := disk[row.Slug]; dup {
			continue
		}
		disk[row.Slug] = struct{}{}

		if checksums[row.Slug] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		row.Lede = recovery.Lede(data)
		if err := db.UpsertPost(row); err != nil {
			logger.Warn("sync: upsert failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: cataloged", slog.String("slug", row.Slug))
		}
	}

	for slug := range checksums {
		if _, ok := disk[slug]; !ok {
			if err := db.DeletePost(slug); err != nil {
				logger.Warn("sync: delete failed", slog.String("slug", slug), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("slug", slug))
			}
		}
	}

	return nil
}
