package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manyagkarle13/syllabus-maker/config"
	"github.com/manyagkarle13/syllabus-maker/database"
	"github.com/manyagkarle13/syllabus-maker/model"
	"github.com/manyagkarle13/syllabus-maker/services/digitalocean"
	"github.com/manyagkarle13/syllabus-maker/services/render"
	"github.com/manyagkarle13/syllabus-maker/services/scheme"
	"github.com/manyagkarle13/syllabus-maker/utils/pdfvalidation"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidTarget          = errors.New("invalid scheme target")
	ErrBranchNotFound         = errors.New("branch not found")
	ErrDocumentNotFound       = errors.New("scheme document not found")
	ErrDocumentNotTrashed     = errors.New("scheme document is not in the trash")
	ErrDocumentAlreadyTrashed = errors.New("scheme document is already in the trash")
	ErrBlobStoreUnavailable   = errors.New("document storage is not configured")
)

// BuildMode selects which halves of a build run.
type BuildMode string

const (
	ModeGenerate        BuildMode = "generate"
	ModeSave            BuildMode = "save"
	ModeSaveAndGenerate BuildMode = "save_and_generate"
)

func ParseBuildMode(s string) (BuildMode, bool) {
	switch BuildMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeGenerate:
		return ModeGenerate, true
	case ModeSave:
		return ModeSave, true
	case ModeSaveAndGenerate:
		return ModeSaveAndGenerate, true
	}
	return "", false
}

func (m BuildMode) saves() bool     { return m == ModeSave || m == ModeSaveAndGenerate }
func (m BuildMode) generates() bool { return m == ModeGenerate || m == ModeSaveAndGenerate }

// WarningPersistenceFailed marks a generated document whose rows could not
// be written back.
const WarningPersistenceFailed = "persistence-failed"

// BlobStore keeps generated document bytes outside the database.
type BlobStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
}

type BuildRequest struct {
	BranchID  uint
	Year      int
	Semester  int
	Rows      []scheme.CourseRow
	Mode      BuildMode
	Actor     Actor
	RequestID string
}

type BuildWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BuildResult is the outcome of a build. Document and Content are nil for
// ModeSave.
type BuildResult struct {
	Mode     BuildMode             `json:"mode"`
	Result   *scheme.Result        `json:"result"`
	Summary  scheme.Summary        `json:"summary"`
	Written  int                   `json:"written"`
	Document *model.SchemeDocument `json:"document,omitempty"`
	Content  []byte                `json:"-"`
	Warnings []BuildWarning        `json:"warnings,omitempty"`
}

// Preview is the reconciled view of a scheme without side effects.
type Preview struct {
	Branch    model.Branch       `json:"branch"`
	Result    *scheme.Result     `json:"result"`
	Summary   scheme.Summary     `json:"summary"`
	Pending   []scheme.CourseRow `json:"pending_writes"`
	Documents int64              `json:"documents"`
}

// DocumentFilter narrows ListDocuments. Trashed selects the trash instead of
// active documents.
type DocumentFilter struct {
	BranchID uint
	Year     int
	Semester int
	Trashed  bool
	Page     int
	Limit    int
}

// PurgeReport describes one retention purge run.
type PurgeReport struct {
	Candidates int    `json:"candidates"`
	Purged     int    `json:"purged"`
	Failed     int    `json:"failed"`
	DryRun     bool   `json:"dry_run"`
	IDs        []uint `json:"ids"`
}

type SchemeServiceOptions struct {
	// Store defaults to a database.SchemeStore on the service's db.
	Store scheme.RowStore
	// Catalog defaults to Store when it also implements scheme.Catalog.
	Catalog         scheme.Catalog
	Blobs           BlobStore
	Activity        *ActivityService
	FrontMatterPath string
	Layout          scheme.Layout
	Now             func() time.Time
}

// SchemeService runs scheme builds and manages generated documents
type SchemeService struct {
	db              *gorm.DB
	store           scheme.RowStore
	catalog         scheme.Catalog
	blobs           BlobStore
	activity        *ActivityService
	frontMatterPath string
	layout          scheme.Layout
	now             func() time.Time
	logger          *logrus.Logger
}

// NewSchemeService creates a scheme service. Documents are kept in the
// database when opts.Blobs is nil.
func NewSchemeService(db *gorm.DB, opts SchemeServiceOptions) *SchemeService {
	s := &SchemeService{
		db:              db,
		store:           opts.Store,
		catalog:         opts.Catalog,
		blobs:           opts.Blobs,
		activity:        opts.Activity,
		frontMatterPath: opts.FrontMatterPath,
		layout:          opts.Layout,
		now:             opts.Now,
		logger:          config.GetLogger(),
	}

	if s.store == nil {
		s.store = database.NewSchemeStore(db)
	}
	if s.catalog == nil {
		if c, ok := s.store.(scheme.Catalog); ok {
			s.catalog = c
		}
	}
	s.catalog = scheme.CatalogOrEmpty(s.catalog)
	if s.activity == nil {
		s.activity = NewActivityService(db)
	}
	if s.layout.RowHeightMM <= 0 || s.layout.TableBudgetMM <= 0 {
		s.layout = scheme.DefaultLayout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ValidateTarget checks the year and semester ranges.
func ValidateTarget(target scheme.Target) error {
	if target.BranchID == 0 {
		return fmt.Errorf("%w: branch is required", ErrInvalidTarget)
	}
	if target.Year < 2000 || target.Year > 2100 {
		return fmt.Errorf("%w: year must be between 2000 and 2100", ErrInvalidTarget)
	}
	if target.Semester < 1 || target.Semester > 8 {
		return fmt.Errorf("%w: semester must be between 1 and 8", ErrInvalidTarget)
	}
	return nil
}

// Build reconciles the submitted rows with the store and catalog, writes
// changed rows back when the mode saves, and renders and records a document
// when the mode generates.
func (s *SchemeService) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	return s.build(ctx, req, model.ActivityGenerate, nil)
}

func (s *SchemeService) build(ctx context.Context, req BuildRequest, action string, meta map[string]interface{}) (*BuildResult, error) {
	target := scheme.Target{BranchID: req.BranchID, Year: req.Year, Semester: req.Semester}
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = ModeGenerate
	}

	log := s.logger.WithFields(logrus.Fields{
		"module":     "scheme",
		"request_id": req.RequestID,
		"branch_id":  target.BranchID,
		"year":       target.Year,
		"semester":   target.Semester,
		"mode":       req.Mode,
	})

	branch, err := s.loadBranch(ctx, target.BranchID)
	if err != nil {
		return nil, err
	}

	var fm *scheme.FrontMatter
	if req.Mode.generates() {
		fm, err = scheme.LoadFrontMatter(s.frontMatterPath)
		if err != nil {
			log.WithError(err).Error("front matter lookup failed")
			return nil, err
		}
	}

	result, err := s.reconcile(ctx, target, req.Rows)
	if err != nil {
		return nil, err
	}

	out := &BuildResult{
		Mode:    req.Mode,
		Result:  result,
		Summary: result.Summary(),
	}

	written, syncErr := scheme.Sync(ctx, result, s.store)
	switch {
	case syncErr != nil && req.Mode.saves():
		log.WithError(syncErr).Error("scheme rows not saved")
		return nil, syncErr
	case syncErr != nil:
		log.WithError(syncErr).Warn("scheme rows not saved, document generated from submitted rows")
		out.Warnings = append(out.Warnings, BuildWarning{
			Code:    WarningPersistenceFailed,
			Message: "The document was generated but the submitted rows could not be saved. Retry to save them.",
		})
	default:
		out.Written = written
	}

	if req.Mode.saves() {
		s.activity.Record(ctx, ActivityEntry{
			Action:      model.ActivitySave,
			ObjectType:  "scheme",
			ObjectID:    branch.ID,
			ObjectName:  schemeTitle(branch, target),
			Description: fmt.Sprintf("Saved %d scheme rows", written),
			Actor:       req.Actor,
			Metadata:    map[string]interface{}{"year": target.Year, "semester": target.Semester, "written": written},
		})
	}

	if !req.Mode.generates() {
		log.WithField("written", written).Info("scheme saved")
		return out, nil
	}

	generatedAt := s.now()
	doc, err := scheme.Assemble(fm, result, scheme.DocumentMeta{
		BranchCode:  branch.Code,
		BranchName:  branch.Name,
		GeneratedAt: generatedAt,
		Layout:      s.layout,
	})
	if err != nil {
		return nil, err
	}

	content, err := render.RenderPDF(doc)
	if err != nil {
		config.LogError(s.logger, "services", "SchemeService.Build", "render pdf", target, err)
		return nil, err
	}

	inspected, err := pdfvalidation.Inspect(content, pdfvalidation.SchemeLimits)
	if err != nil {
		return nil, fmt.Errorf("inspect rendered pdf: %w", err)
	}
	if !inspected.Valid {
		return nil, fmt.Errorf("rendered pdf rejected: %s", inspected.Error)
	}

	record, err := s.storeDocument(ctx, branch, result, content, inspected.PageCount, generatedAt, req.Actor)
	if err != nil {
		config.LogError(s.logger, "services", "SchemeService.Build", "store document", target, err)
		return nil, err
	}
	out.Document = record
	out.Content = content

	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["build_id"] = record.BuildID
	meta["pages"] = record.PageCount
	meta["written"] = out.Written
	if syncErr != nil {
		meta["warning"] = WarningPersistenceFailed
	}
	s.activity.Record(ctx, ActivityEntry{
		Action:      action,
		ObjectType:  "scheme_document",
		ObjectID:    record.ID,
		ObjectName:  record.Title,
		Description: fmt.Sprintf("Generated %s (%d pages)", record.Filename, record.PageCount),
		Actor:       req.Actor,
		Metadata:    meta,
	})

	log.WithFields(logrus.Fields{
		"document_id": record.ID,
		"pages":       record.PageCount,
		"rows":        result.Len(),
		"written":     out.Written,
	}).Info("scheme document generated")
	return out, nil
}

// Preview reconciles a scheme without writing anything.
func (s *SchemeService) Preview(ctx context.Context, target scheme.Target, submitted []scheme.CourseRow) (*Preview, error) {
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}
	branch, err := s.loadBranch(ctx, target.BranchID)
	if err != nil {
		return nil, err
	}
	result, err := s.reconcile(ctx, target, submitted)
	if err != nil {
		return nil, err
	}

	var documents int64
	if err := s.documentQuery(ctx, DocumentFilter{BranchID: target.BranchID, Year: target.Year, Semester: target.Semester}).
		Count(&documents).Error; err != nil {
		return nil, err
	}

	return &Preview{
		Branch:    branch,
		Result:    result,
		Summary:   result.Summary(),
		Pending:   scheme.PendingWrites(result),
		Documents: documents,
	}, nil
}

// Export renders the reconciled scheme as a spreadsheet and returns it with
// a suggested filename.
func (s *SchemeService) Export(ctx context.Context, target scheme.Target) ([]byte, string, error) {
	if err := ValidateTarget(target); err != nil {
		return nil, "", err
	}
	branch, err := s.loadBranch(ctx, target.BranchID)
	if err != nil {
		return nil, "", err
	}
	fm, err := scheme.LoadFrontMatter(s.frontMatterPath)
	if err != nil {
		return nil, "", err
	}
	result, err := s.reconcile(ctx, target, nil)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	doc, err := scheme.Assemble(fm, result, scheme.DocumentMeta{
		BranchCode:  branch.Code,
		BranchName:  branch.Name,
		GeneratedAt: now,
		Layout:      s.layout,
	})
	if err != nil {
		return nil, "", err
	}

	content, err := render.WriteXLSX(doc)
	if err != nil {
		return nil, "", err
	}
	return content, schemeFilename(branch, target, now, ".xlsx"), nil
}

func (s *SchemeService) reconcile(ctx context.Context, target scheme.Target, submitted []scheme.CourseRow) (*scheme.Result, error) {
	var storeRows, catalogRows []scheme.CourseRow

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.FetchRows(gctx, target.BranchID, target.Year, target.Semester)
		if err != nil {
			return fmt.Errorf("fetch scheme rows: %w", err)
		}
		storeRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.catalog.FetchCatalog(gctx, target.BranchID, target.Semester)
		if err != nil {
			return fmt.Errorf("fetch catalog: %w", err)
		}
		catalogRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return scheme.Reconcile(target, storeRows, catalogRows, submitted), nil
}

func (s *SchemeService) loadBranch(ctx context.Context, id uint) (model.Branch, error) {
	var branch model.Branch
	if err := s.db.WithContext(ctx).First(&branch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return branch, ErrBranchNotFound
		}
		return branch, err
	}
	return branch, nil
}

func (s *SchemeService) storeDocument(ctx context.Context, branch model.Branch, result *scheme.Result, content []byte, pages int, generatedAt time.Time, actor Actor) (*model.SchemeDocument, error) {
	target := result.Target
	sum := sha256.Sum256(content)
	summary, err := json.Marshal(result.Summary())
	if err != nil {
		return nil, err
	}

	record := &model.SchemeDocument{
		BuildID:     uuid.NewString(),
		BranchID:    branch.ID,
		BranchName:  branch.Name,
		Year:        target.Year,
		Semester:    target.Semester,
		Title:       schemeTitle(branch, target),
		Filename:    schemeFilename(branch, target, generatedAt, ".pdf"),
		SizeBytes:   int64(len(content)),
		PageCount:   pages,
		Checksum:    hex.EncodeToString(sum[:]),
		Summary:     datatypes.JSON(summary),
		CreatedBy:   actor.Name,
		GeneratedAt: generatedAt,
	}

	if s.blobs != nil {
		record.StorageKey = digitalocean.GenerateKey("schemes/"+strings.ToLower(branch.Code), record.Filename)
		if err := s.blobs.PutObject(ctx, record.StorageKey, content, digitalocean.GetContentType(record.Filename)); err != nil {
			return nil, err
		}
	} else {
		record.Content = content
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if record.StorageKey != "" {
			if derr := s.blobs.DeleteObject(ctx, record.StorageKey); derr != nil {
				s.logger.WithError(derr).WithField("key", record.StorageKey).Warn("orphaned document blob")
			}
		}
		return nil, fmt.Errorf("create scheme document: %w", err)
	}
	return record, nil
}

// ListDocuments returns documents newest first and the total match count.
func (s *SchemeService) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.SchemeDocument, int64, error) {
	page, limit := NormalizePage(filter.Page, filter.Limit)
	query := s.documentQuery(ctx, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []model.SchemeDocument
	err := query.Omit("content").
		Order("generated_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (s *SchemeService) documentQuery(ctx context.Context, filter DocumentFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&model.SchemeDocument{}).Where("is_deleted = ?", filter.Trashed)
	if filter.BranchID != 0 {
		query = query.Where("branch_id = ?", filter.BranchID)
	}
	if filter.Year != 0 {
		query = query.Where("year = ?", filter.Year)
	}
	if filter.Semester != 0 {
		query = query.Where("semester = ?", filter.Semester)
	}
	return query
}

// GetDocument returns a document in or out of the trash, without its bytes.
func (s *SchemeService) GetDocument(ctx context.Context, id uint) (*model.SchemeDocument, error) {
	var doc model.SchemeDocument
	if err := s.db.WithContext(ctx).Omit("content").First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// DownloadDocument returns the document and its PDF bytes.
func (s *SchemeService) DownloadDocument(ctx context.Context, id uint, actor Actor) (*model.SchemeDocument, []byte, error) {
	var doc model.SchemeDocument
	if err := s.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, err
	}

	content := doc.Content
	if doc.StorageKey != "" {
		if s.blobs == nil {
			return nil, nil, ErrBlobStoreUnavailable
		}
		var err error
		content, err = s.blobs.GetObject(ctx, doc.StorageKey)
		if err != nil {
			config.LogError(s.logger, "services", "SchemeService.DownloadDocument", "fetch blob", map[string]interface{}{"id": id, "key": doc.StorageKey}, err)
			return nil, nil, err
		}
	}
	doc.Content = nil

	s.activity.Record(ctx, ActivityEntry{
		Action:     model.ActivityDownload,
		ObjectType: "scheme_document",
		ObjectID:   doc.ID,
		ObjectName: doc.Title,
		Actor:      actor,
	})
	return &doc, content, nil
}

// TrashDocument moves a document to the trash. Its bytes are kept until the
// retention purge.
func (s *SchemeService) TrashDocument(ctx context.Context, id uint, actor Actor) (*model.SchemeDocument, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.IsDeleted {
		return nil, ErrDocumentAlreadyTrashed
	}

	now := s.now()
	err = s.db.WithContext(ctx).Model(&model.SchemeDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
	if err != nil {
		return nil, err
	}
	doc.IsDeleted = true
	doc.DeletedAt = &now

	s.activity.Record(ctx, ActivityEntry{
		Action:     model.ActivityTrash,
		ObjectType: "scheme_document",
		ObjectID:   doc.ID,
		ObjectName: doc.Title,
		Actor:      actor,
	})
	return doc, nil
}

// RestoreDocument takes a document out of the trash.
func (s *SchemeService) RestoreDocument(ctx context.Context, id uint, actor Actor) (*model.SchemeDocument, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.IsDeleted {
		return nil, ErrDocumentNotTrashed
	}

	err = s.db.WithContext(ctx).Model(&model.SchemeDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": false, "deleted_at": nil}).Error
	if err != nil {
		return nil, err
	}
	doc.IsDeleted = false
	doc.DeletedAt = nil

	s.activity.Record(ctx, ActivityEntry{
		Action:     model.ActivityRestore,
		ObjectType: "scheme_document",
		ObjectID:   doc.ID,
		ObjectName: doc.Title,
		Actor:      actor,
	})
	return doc, nil
}

// DeleteDocument permanently removes a trashed document before its retention
// runs out. The blob goes first so a failure leaves the row in the trash.
func (s *SchemeService) DeleteDocument(ctx context.Context, id uint, actor Actor) error {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if !doc.IsDeleted {
		return ErrDocumentNotTrashed
	}

	if err := s.purgeDocument(ctx, *doc); err != nil {
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		Action:     model.ActivityDelete,
		ObjectType: "scheme_document",
		ObjectID:   doc.ID,
		ObjectName: doc.Title,
		Actor:      actor,
	})
	return nil
}

// RegenerateDocument builds a new document for the scheme of an existing one
// from the current store and catalog. The existing document is not changed.
func (s *SchemeService) RegenerateDocument(ctx context.Context, id uint, actor Actor, requestID string) (*BuildResult, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, BuildRequest{
		BranchID:  doc.BranchID,
		Year:      doc.Year,
		Semester:  doc.Semester,
		Mode:      ModeGenerate,
		Actor:     actor,
		RequestID: requestID,
	}, model.ActivityRegenerate, map[string]interface{}{"source_document_id": doc.ID})
}

// PurgeTrash hard-deletes documents trashed longer than retention, blob
// first. With dryRun it only reports the candidates.
func (s *SchemeService) PurgeTrash(ctx context.Context, retention time.Duration, dryRun bool) (*PurgeReport, error) {
	cutoff := s.now().Add(-retention)

	var docs []model.SchemeDocument
	err := s.db.WithContext(ctx).
		Select("id", "title", "storage_key", "deleted_at").
		Where("is_deleted = ? AND deleted_at < ?", true, cutoff).
		Order("deleted_at ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}

	report := &PurgeReport{Candidates: len(docs), DryRun: dryRun, IDs: []uint{}}
	for _, doc := range docs {
		report.IDs = append(report.IDs, doc.ID)
	}
	if dryRun {
		return report, nil
	}

	for _, doc := range docs {
		if err := s.purgeDocument(ctx, doc); err != nil {
			report.Failed++
			config.LogError(s.logger, "services", "SchemeService.PurgeTrash", "purge document", map[string]interface{}{"id": doc.ID}, err)
			continue
		}
		report.Purged++
		s.activity.Record(ctx, ActivityEntry{
			Action:     model.ActivityPurge,
			ObjectType: "scheme_document",
			ObjectID:   doc.ID,
			ObjectName: doc.Title,
			Actor:      SystemActor,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"module":     "scheme",
		"candidates": report.Candidates,
		"purged":     report.Purged,
		"failed":     report.Failed,
	}).Info("trash purge finished")
	return report, nil
}

func (s *SchemeService) purgeDocument(ctx context.Context, doc model.SchemeDocument) error {
	if doc.StorageKey != "" {
		if s.blobs == nil {
			return ErrBlobStoreUnavailable
		}
		if err := s.blobs.DeleteObject(ctx, doc.StorageKey); err != nil {
			return err
		}
	}
	return s.db.WithContext(ctx).Delete(&model.SchemeDocument{}, doc.ID).Error
}

func schemeTitle(branch model.Branch, target scheme.Target) string {
	return fmt.Sprintf("%s Scheme Sem%d %d", strings.ToUpper(branch.Code), target.Semester, target.Year)
}

func schemeFilename(branch model.Branch, target scheme.Target, at time.Time, ext string) string {
	return fmt.Sprintf("Scheme_%s_%d_Sem%d_%s%s", strings.ToUpper(branch.Code), target.Year, target.Semester, at.Format("20060102150405"), ext)
}
