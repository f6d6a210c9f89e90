package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"atelier-admin/internal/domain"
	"atelier-admin/internal/infrastructure/export"
	"atelier-admin/internal/matrix"
	"atelier-admin/pkg/logger"
	"atelier-admin/pkg/storage"
	"atelier-admin/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// SessionResult is a session after an operation, with the notice to show.
type SessionResult struct {
	Session *domain.VariantSession
	Notice  *domain.Notice
}

// ImageInput is an image the admin picked for one row.
type ImageInput struct {
	RowID       string
	Filename    string
	ContentType string
	Size        int64
	Mode        string
	File        io.Reader
}

type VariantUsecase struct {
	catalog       domain.CatalogAPI
	store         domain.SessionStore
	audits        domain.SaveAuditRepository
	exports       domain.ExportStorage
	engine        *matrix.Engine
	locks         *keyedMutex
	loads         singleflight.Group
	maxUploadSize int64
	now           func() time.Time
}

// NewVariantUsecase wires the session workflow. exports may be nil, which
// disables spreadsheet export.
func NewVariantUsecase(catalog domain.CatalogAPI, store domain.SessionStore, audits domain.SaveAuditRepository, exports domain.ExportStorage, engine *matrix.Engine, maxUploadSizeMB int64) *VariantUsecase {
	return &VariantUsecase{
		catalog:       catalog,
		store:         store,
		audits:        audits,
		exports:       exports,
		engine:        engine,
		locks:         newKeyedMutex(),
		maxUploadSize: maxUploadSizeMB << 20,
		now:           time.Now,
	}
}

// Open loads the persisted variants of a product and starts an editing
// session on them. Nothing is stored when loading fails.
func (uc *VariantUsecase) Open(ctx context.Context, productID string) (*SessionResult, error) {
	listing, err := uc.loadVariants(ctx, productID, false)
	if err != nil {
		return nil, err
	}

	s := uc.engine.Open(uuid.NewString(), productID, *listing)
	if user := domain.UserFromContext(ctx); user != nil {
		s.UserID = user.ID
	}
	s.CreatedAt = uc.now().UTC()
	s.UpdatedAt = s.CreatedAt

	if err := uc.store.Save(ctx, &s); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	logger.WithContext(ctx).Info().
		Str("session_id", s.ID).
		Str("product_id", productID).
		Int("groups", len(s.Groups)).
		Int("rows", len(s.Rows)).
		Int("persisted", len(listing.Variants)).
		Msg("Variant session opened")

	return &SessionResult{Session: &s}, nil
}

func (uc *VariantUsecase) Get(ctx context.Context, id string) (*domain.VariantSession, error) {
	s, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownedBy(ctx, s) {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (uc *VariantUsecase) Discard(ctx context.Context, id string) error {
	unlock := uc.locks.Lock(id)
	defer unlock()

	if _, err := uc.Get(ctx, id); err != nil {
		return err
	}
	return uc.store.Delete(ctx, id)
}

// Dispatch applies one editing action to a session.
func (uc *VariantUsecase) Dispatch(ctx context.Context, id string, action matrix.Action) (*SessionResult, error) {
	var notice *domain.Notice
	s, err := uc.update(ctx, id, func(s domain.VariantSession) (domain.VariantSession, error) {
		out, err := uc.engine.Apply(s, action)
		if err != nil {
			return s, err
		}
		if !out.Diff.Unchanged() {
			logger.WithContext(ctx).Debug().
				Str("session_id", id).
				Str("diff", out.Diff.String()).
				Msg("Variant rows rebuilt")
		}
		notice = out.Notice
		return out.Session, nil
	})
	if err != nil {
		return nil, err
	}
	return &SessionResult{Session: s, Notice: notice}, nil
}

// Reload re-fetches the persisted variants and reconciles the session
// against them. On failure the session is left untouched.
func (uc *VariantUsecase) Reload(ctx context.Context, id string) (*SessionResult, error) {
	current, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	listing, err := uc.loadVariants(ctx, current.ProductID, true)
	if err != nil {
		return nil, err
	}

	s, err := uc.update(ctx, id, func(s domain.VariantSession) (domain.VariantSession, error) {
		return uc.engine.Refresh(s, *listing).Session, nil
	})
	if err != nil {
		return nil, err
	}
	return &SessionResult{Session: s, Notice: domain.InfoNotice(domain.MessageVariantsReloaded)}, nil
}

// Save sends the dirty rows to the store API in one bulk upsert, then
// reloads the persisted variants so new rows get bound to their records.
func (uc *VariantUsecase) Save(ctx context.Context, id string) (*SessionResult, error) {
	log := logger.WithContext(ctx)

	var sub *matrix.Submission
	var notice *domain.Notice
	s, err := uc.update(ctx, id, func(s domain.VariantSession) (domain.VariantSession, error) {
		if len(s.Pending) > 0 {
			notice = domain.InfoNotice(domain.MessageSaveInProgress)
			return s, nil
		}
		built, err := matrix.BuildUpsert(s)
		if err != nil {
			return s, err
		}
		if built == nil {
			notice = domain.InfoNotice(domain.MessageNoChanges)
			return s, nil
		}
		sub = built
		return uc.engine.MarkSubmitted(s, built.Revisions), nil
	})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &SessionResult{Session: s, Notice: notice}, nil
	}

	result, err := uc.catalog.BulkUpsertVariants(ctx, s.ProductID, &sub.Request)
	if err != nil {
		log.Error().Err(err).Str("session_id", id).Str("product_id", s.ProductID).Msg("Bulk upsert failed")
		if _, clearErr := uc.update(ctx, id, func(s domain.VariantSession) (domain.VariantSession, error) {
			return uc.engine.ClearPending(s), nil
		}); clearErr != nil {
			log.Warn().Err(clearErr).Str("session_id", id).Msg("Failed to clear pending save")
		}
		return nil, remoteError(err, domain.MessageSaveFailed)
	}

	log.Info().
		Str("session_id", id).
		Str("product_id", s.ProductID).
		Int("entries", len(sub.Request.Variants)).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("Variants saved")
	uc.recordAudit(ctx, s, sub, result)

	saved := domain.SuccessNotice(fmt.Sprintf("Saved • Created: %d • Updated: %d", result.Created, result.Updated))

	listing, err := uc.loadVariants(ctx, s.ProductID, true)
	if err != nil {
		// Pending stays set: the next reload settles the submitted rows.
		log.Warn().Err(err).Str("session_id", id).Msg("Reload after save failed")
		latest, getErr := uc.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return &SessionResult{
			Session: latest,
			Notice:  domain.ErrorNotice(saved.Message + ". " + domain.MessageReloadAfterSave),
		}, nil
	}

	s, err = uc.update(ctx, id, func(s domain.VariantSession) (domain.VariantSession, error) {
		return uc.engine.Refresh(s, *listing).Session, nil
	})
	if err != nil {
		return nil, err
	}
	return &SessionResult{Session: s, Notice: saved}, nil
}

// AttachImage uploads one image for a persisted row and replaces the row's
// image list with what the store API returns.
func (uc *VariantUsecase) AttachImage(ctx context.Context, id string, in ImageInput) (*SessionResult, error) {
	s, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	i := s.RowByID(in.RowID)
	if i < 0 {
		return nil, domain.ErrRowNotFound
	}
	row := s.Rows[i]
	if !row.Bound() {
		return &SessionResult{Session: s, Notice: domain.InfoNotice(domain.MessageSaveFirst)}, nil
	}

	if err := utils.ValidateImage(in.Filename, in.ContentType); err != nil {
		return nil, err
	}
	if uc.maxUploadSize > 0 && in.Size > uc.maxUploadSize {
		return nil, domain.ErrImageTooLarge
	}
	data, contentType, err := utils.ProcessImage(in.File, in.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	mode := strings.TrimSpace(in.Mode)
	if mode == "" {
		mode = domain.ImageModePrimary
	}
	images, err := uc.catalog.UploadVariantImage(ctx, s.ProductID, &domain.ImageUpload{
		VariantID:   row.PersistedID,
		Filename:    utils.ReplaceExtension(in.Filename, contentType),
		ContentType: contentType,
		Data:        data,
		Mode:        mode,
	})
	if err != nil {
		logger.WithContext(ctx).Error().Err(err).Str("session_id", id).Str("variant_id", row.PersistedID).Msg("Variant image upload failed")
		return nil, remoteError(err, domain.MessageImageFailed)
	}

	updated, err := uc.update(ctx, id, func(s domain.VariantSession) (domain.VariantSession, error) {
		out, err := uc.engine.Apply(s, matrix.SetRowImages{RowID: in.RowID, Images: images})
		if err != nil {
			return s, err
		}
		return out.Session, nil
	})
	if err != nil {
		return nil, err
	}
	return &SessionResult{Session: updated, Notice: domain.SuccessNotice(domain.MessageImageUploaded)}, nil
}

// Export renders the session matrix as a spreadsheet, uploads it and returns
// its URL. The previous export of the session is deleted.
func (uc *VariantUsecase) Export(ctx context.Context, id string) (string, error) {
	if uc.exports == nil {
		return "", domain.ErrExportDisabled
	}
	s, err := uc.Get(ctx, id)
	if err != nil {
		return "", err
	}

	data, err := export.RenderXLSX(*s)
	if err != nil {
		return "", fmt.Errorf("failed to render export: %w", err)
	}
	url, err := uc.exports.UploadBuffer(ctx, "exports/"+s.ProductID, data, storage.ContentTypeXLSX)
	if err != nil {
		return "", err
	}

	var previous string
	if _, err := uc.update(ctx, id, func(s domain.VariantSession) (domain.VariantSession, error) {
		previous = s.LastExportURL
		s.LastExportURL = url
		return s, nil
	}); err != nil {
		return "", err
	}
	if previous != "" && previous != url {
		if err := uc.exports.DeleteFile(ctx, previous); err != nil {
			logger.WithContext(ctx).Warn().Err(err).Str("url", previous).Msg("Failed to delete previous export")
		}
	}
	return url, nil
}

// update loads, transforms and stores a session while holding its lock.
// Network calls must not happen inside fn.
func (uc *VariantUsecase) update(ctx context.Context, id string, fn func(domain.VariantSession) (domain.VariantSession, error)) (*domain.VariantSession, error) {
	unlock := uc.locks.Lock(id)
	defer unlock()

	current, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := fn(*current)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = uc.now().UTC()
	if err := uc.store.Save(ctx, &next); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return &next, nil
}

// loadVariants fetches the persisted variants of a product. Concurrent opens
// by the same caller share one request; fresh loads never join a call that
// may have started before a save and always start a new one.
func (uc *VariantUsecase) loadVariants(ctx context.Context, productID string, fresh bool) (*domain.VariantListing, error) {
	key := "variants:" + productID + ":" + domain.TokenFromContext(ctx)

	var v interface{}
	var err error
	if fresh {
		uc.loads.Forget(key)
		v, err = uc.catalog.GetVariants(ctx, productID)
	} else {
		v, err, _ = shared(ctx, &uc.loads, key, func(ctx context.Context) (interface{}, error) {
			return uc.catalog.GetVariants(ctx, productID)
		})
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.WithContext(ctx).Error().Err(err).Str("product_id", productID).Msg("Failed to load variants")
		return nil, remoteError(err, domain.MessageLoadFailed)
	}
	return v.(*domain.VariantListing), nil
}

func (uc *VariantUsecase) recordAudit(ctx context.Context, s *domain.VariantSession, sub *matrix.Submission, result *domain.UpsertResult) {
	payload, err := json.Marshal(sub.Request)
	if err != nil {
		payload = nil
	}
	audit := &domain.SaveAudit{
		ProductID: s.ProductID,
		SessionID: s.ID,
		UserID:    s.UserID,
		Entries:   len(sub.Request.Variants),
		Created:   result.Created,
		Updated:   result.Updated,
		Payload:   payload,
	}
	if err := uc.audits.Record(ctx, audit); err != nil {
		logger.WithContext(ctx).Warn().Err(err).Str("session_id", s.ID).Msg("Failed to record save audit")
	}
}

// remoteError wraps a store API failure with the server's message, or
// fallback when it gave none.
func remoteError(err error, fallback string) error {
	msg := fallback
	var withMessage interface{ ServerMessage() string }
	if errors.As(err, &withMessage) && withMessage.ServerMessage() != "" {
		msg = withMessage.ServerMessage()
	}
	return &domain.RemoteError{Message: msg, Err: err}
}

// ownedBy hides a session from other admins. Sessions or requests without a
// user are not restricted.
func ownedBy(ctx context.Context, s *domain.VariantSession) bool {
	user := domain.UserFromContext(ctx)
	return user == nil || s.UserID == "" || s.UserID == user.ID
}
