package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"searxiv/internal/errs"
)

// Gateway is the typed interface the harvester and the search service
// use to reach the relational store.
type Gateway interface {
	GetAllPapers(ctx context.Context) ([]Paper, error)
	GetPaper(ctx context.Context, id uint) (*Paper, error)
	GetPaperAuthors(ctx context.Context, paperID uint) ([]Author, error)
	PaperExists(ctx context.Context, url string) (bool, error)
	CountPapers(ctx context.Context) (int64, error)

	InsertPaper(ctx context.Context, url, title, description, body string) (uint, error)
	InsertAuthor(ctx context.Context, name string) (uint, error)
	InsertSubject(ctx context.Context, name string) (uint, error)
	LinkPaperAuthor(ctx context.Context, paperID, authorID uint) error
	LinkPaperSubject(ctx context.Context, paperID, subjectID uint) error

	IngestPaperTx(ctx context.Context, paper NewPaper, authors, subjects []string) (uint, error)
}

type gormGateway struct {
	db *gorm.DB
}

// NewGateway wraps an open *gorm.DB as a Gateway.
func NewGateway(db *gorm.DB) Gateway {
	return &gormGateway{db: db}
}

func (g *gormGateway) GetAllPapers(ctx context.Context) ([]Paper, error) {
	var papers []Paper
	if err := g.db.WithContext(ctx).Preload("Authors").Find(&papers).Error; err != nil {
		return nil, errs.New(errs.Database, "GetAllPapers", err)
	}
	return papers, nil
}

func (g *gormGateway) GetPaper(ctx context.Context, id uint) (*Paper, error) {
	var paper Paper
	err := g.db.WithContext(ctx).Preload("Authors").Preload("Subjects").First(&paper, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.New(errs.NotFound, "GetPaper", err)
	}
	if err != nil {
		return nil, errs.New(errs.Database, "GetPaper", err)
	}
	return &paper, nil
}

func (g *gormGateway) GetPaperAuthors(ctx context.Context, paperID uint) ([]Author, error) {
	var paper Paper
	err := g.db.WithContext(ctx).Preload("Authors").First(&paper, paperID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.New(errs.NotFound, "GetPaperAuthors", err)
	}
	if err != nil {
		return nil, errs.New(errs.Database, "GetPaperAuthors", err)
	}
	return paper.Authors, nil
}

func (g *gormGateway) PaperExists(ctx context.Context, url string) (bool, error) {
	var count int64
	if err := g.db.WithContext(ctx).Model(&Paper{}).Where("url = ?", url).Count(&count).Error; err != nil {
		return false, errs.New(errs.Database, "PaperExists", err)
	}
	return count > 0, nil
}

func (g *gormGateway) CountPapers(ctx context.Context) (int64, error) {
	var count int64
	if err := g.db.WithContext(ctx).Model(&Paper{}).Count(&count).Error; err != nil {
		return 0, errs.New(errs.Database, "CountPapers", err)
	}
	return count, nil
}

func (g *gormGateway) InsertPaper(ctx context.Context, url, title, description, body string) (uint, error) {
	return insertPaper(ctx, g.db, url, title, description, body)
}

func (g *gormGateway) InsertAuthor(ctx context.Context, name string) (uint, error) {
	return insertAuthor(ctx, g.db, name)
}

func (g *gormGateway) InsertSubject(ctx context.Context, name string) (uint, error) {
	return insertSubject(ctx, g.db, name)
}

func (g *gormGateway) LinkPaperAuthor(ctx context.Context, paperID, authorID uint) error {
	return linkPaperAuthor(ctx, g.db, paperID, authorID)
}

func (g *gormGateway) LinkPaperSubject(ctx context.Context, paperID, subjectID uint) error {
	return linkPaperSubject(ctx, g.db, paperID, subjectID)
}

// IngestPaperTx performs all inserts and link-ups atomically, rolling
// back every effect on any failure.
func (g *gormGateway) IngestPaperTx(ctx context.Context, np NewPaper, authorNames, subjectNames []string) (uint, error) {
	var paperID uint
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := insertPaper(ctx, tx, np.URL, np.Title, np.Description, np.Body)
		if err != nil {
			return err
		}
		paperID = id

		for _, name := range authorNames {
			authorID, err := insertAuthor(ctx, tx, name)
			if err != nil {
				return err
			}
			if err := linkPaperAuthor(ctx, tx, paperID, authorID); err != nil {
				return err
			}
		}

		for _, name := range subjectNames {
			subjectID, err := insertSubject(ctx, tx, name)
			if err != nil {
				return err
			}
			if err := linkPaperSubject(ctx, tx, paperID, subjectID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}
	return paperID, nil
}

// insertPaper implements the idempotence contract: look up by the
// natural key (url) first; if found return the existing id; otherwise
// insert with do-nothing-on-conflict and return the new id.
func insertPaper(ctx context.Context, tx *gorm.DB, url, title, description, body string) (uint, error) {
	var existing Paper
	err := tx.WithContext(ctx).Where("url = ?", url).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, errs.New(errs.Database, "insertPaper", err)
	}

	p := Paper{URL: url, Title: title, Description: description, Body: body}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
		return 0, errs.New(errs.Database, "insertPaper", err)
	}
	if p.ID != 0 {
		return p.ID, nil
	}

	// Lost the race to a concurrent insert of the same url: re-lookup.
	if err := tx.WithContext(ctx).Where("url = ?", url).First(&existing).Error; err != nil {
		return 0, errs.New(errs.Database, "insertPaper", err)
	}
	return existing.ID, nil
}

func insertAuthor(ctx context.Context, tx *gorm.DB, name string) (uint, error) {
	var existing Author
	err := tx.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, errs.New(errs.Database, "insertAuthor", err)
	}

	a := Author{Name: name}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&a).Error; err != nil {
		return 0, errs.New(errs.Database, "insertAuthor", err)
	}
	if a.ID != 0 {
		return a.ID, nil
	}

	if err := tx.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err != nil {
		return 0, errs.New(errs.Database, "insertAuthor", err)
	}
	return existing.ID, nil
}

func insertSubject(ctx context.Context, tx *gorm.DB, name string) (uint, error) {
	var existing Subject
	err := tx.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, errs.New(errs.Database, "insertSubject", err)
	}

	s := Subject{Name: name}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&s).Error; err != nil {
		return 0, errs.New(errs.Database, "insertSubject", err)
	}
	if s.ID != 0 {
		return s.ID, nil
	}

	if err := tx.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err != nil {
		return 0, errs.New(errs.Database, "insertSubject", err)
	}
	return existing.ID, nil
}

// linkPaperAuthor is a no-op if the pair already exists (composite PK,
// ON CONFLICT DO NOTHING).
func linkPaperAuthor(ctx context.Context, tx *gorm.DB, paperID, authorID uint) error {
	err := tx.WithContext(ctx).Exec(
		`INSERT INTO paper_author (paper_id, author_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		paperID, authorID,
	).Error
	if err != nil {
		return errs.New(errs.Database, "linkPaperAuthor", err)
	}
	return nil
}

func linkPaperSubject(ctx context.Context, tx *gorm.DB, paperID, subjectID uint) error {
	err := tx.WithContext(ctx).Exec(
		`INSERT INTO paper_subject (paper_id, subject_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		paperID, subjectID,
	).Error
	if err != nil {
		return errs.New(errs.Database, "linkPaperSubject", err)
	}
	return nil
}
