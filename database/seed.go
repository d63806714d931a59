package database

import (
	"fmt"

	"github.com/manyagkarle13/syllabus-maker/config"
	"github.com/manyagkarle13/syllabus-maker/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions. Each one skips when its table already
// has rows.
func (s *Seeder) SeedAll() error {
	log := config.GetLogger()
	log.Info("starting database seeding")

	if err := s.SeedBranches(); err != nil {
		return fmt.Errorf("failed to seed branches: %w", err)
	}

	if err := s.SeedCatalog(); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	log.Info("database seeding completed")
	return nil
}

// SeedBranches creates the engineering branches
func (s *Seeder) SeedBranches() error {
	log := config.GetLogger()

	var count int64
	if err := s.db.Model(&model.Branch{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("branches already exist, skipping")
		return nil
	}

	branches := []model.Branch{
		{Code: "CSE", Name: "Computer Science and Engineering", IsActive: true},
		{Code: "ISE", Name: "Information Science and Engineering", IsActive: true},
		{Code: "ECE", Name: "Electronics and Communication Engineering", IsActive: true},
		{Code: "EEE", Name: "Electrical and Electronics Engineering", IsActive: true},
		{Code: "ME", Name: "Mechanical Engineering", IsActive: true},
		{Code: "CV", Name: "Civil Engineering", IsActive: true},
	}

	if err := s.db.Create(&branches).Error; err != nil {
		return err
	}

	log.WithField("count", len(branches)).Info("created branches")
	return nil
}

// SeedCatalog creates the college-level courses every branch shares
func (s *Seeder) SeedCatalog() error {
	log := config.GetLogger()

	var count int64
	if err := s.db.Model(&model.CatalogCourse{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("catalog courses already exist, skipping")
		return nil
	}

	course := func(semester int, courseType, code, title string, l, t, p int, credits string) model.CatalogCourse {
		return model.CatalogCourse{
			Semester:    semester,
			CourseType:  courseType,
			CourseCode:  code,
			CourseTitle: title,
			L:           l,
			T:           t,
			P:           p,
			CIE:         50,
			SEE:         50,
			Credits:     decimal.RequireFromString(credits),
			AddedBy:     "seed",
		}
	}

	courses := []model.CatalogCourse{
		course(3, "BSC", "MA31", "Linear Algebra and Probability", 3, 1, 0, "4"),
		course(3, "HSMC", "HS31", "Universal Human Values", 2, 0, 0, "2"),
		course(3, "AEC", "AE31", "Technical Writing", 1, 0, 0, "1"),
		course(4, "BSC", "MA41", "Discrete Mathematical Structures", 3, 1, 0, "4"),
		course(4, "HSMC", "HS41", "Constitution of India", 1, 0, 0, "1"),
		course(5, "HSMC", "HS51", "Engineering Economics and Management", 3, 0, 0, "3"),
		course(6, "OEC", "OE61", "Entrepreneurship", 3, 0, 0, "3"),
		course(7, "SEC", "SE71", "Research Methodology and IPR", 2, 0, 0, "2"),
	}

	if err := s.db.Create(&courses).Error; err != nil {
		return err
	}

	log.WithField("count", len(courses)).Info("created catalog courses")
	return nil
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}
