package models

import (
	"time"

	"gorm.io/gorm"
)

// Portfolio content edited through the admin panel. These tables feed the
// public pages and the assistant's context prompt.

// Person holds the site owner's identity (single row).
type Person struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"size:100" json:"first_name"`
	LastName  string `gorm:"size:100" json:"last_name"`
	Role      string `gorm:"size:255" json:"role"`
	Avatar    string `gorm:"size:500" json:"avatar"`
	Location  string `gorm:"size:255" json:"location"`
	Languages string `gorm:"size:255" json:"languages"`
}

func (Person) TableName() string { return "person" }

// About holds the introduction section (single row).
type About struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	IntroTitle       string `gorm:"size:255" json:"intro_title"`
	IntroDescription string `gorm:"type:text" json:"intro_description"`
}

func (About) TableName() string { return "about" }

// Experience types.
const (
	ExperienceWork         = "work"
	ExperienceOrganization = "organization"
)

type Experience struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Company      string `gorm:"size:255" json:"company"`
	Role         string `gorm:"size:255" json:"role"`
	Timeframe    string `gorm:"size:100" json:"timeframe"`
	Achievements string `gorm:"type:text" json:"achievements"` // newline-separated
	Type         string `gorm:"size:20;index" json:"type"`
	Order        int    `gorm:"column:sort_order" json:"order"`
	Visible      bool   `gorm:"default:true" json:"visible"`
}

func (Experience) TableName() string { return "experiences" }

type Education struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Order       int    `gorm:"column:sort_order" json:"order"`
}

func (Education) TableName() string { return "education" }

type Skill struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Order       int    `gorm:"column:sort_order" json:"order"`
}

func (Skill) TableName() string { return "skills" }

type Certification struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:255" json:"name"`
	Role  string `gorm:"size:255" json:"role"`
	Order int    `gorm:"column:sort_order" json:"order"`
}

func (Certification) TableName() string { return "certifications" }

type SocialLink struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:100" json:"name"`
	Icon  string `gorm:"size:100" json:"icon"`
	Link  string `gorm:"size:500" json:"link"`
	Order int    `gorm:"column:sort_order" json:"order"`
}

func (SocialLink) TableName() string { return "social_links" }

type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255" json:"title"`
	Slug        string    `gorm:"size:255;uniqueIndex" json:"slug"`
	Content     string    `gorm:"type:text" json:"content"`
	Image       string    `gorm:"size:500" json:"image"`
	Summary     string    `gorm:"type:text" json:"summary"`
	Tags        string    `gorm:"size:500" json:"tags"` // comma-separated
	Visible     bool      `gorm:"default:true" json:"visible"`
	PublishedAt time.Time `gorm:"column:published_at" json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Post) TableName() string { return "posts" }

type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255" json:"title"`
	Slug        string    `gorm:"size:255;uniqueIndex" json:"slug"`
	Content     string    `gorm:"type:text" json:"content"`
	Image       string    `gorm:"size:500" json:"image"`
	Summary     string    `gorm:"type:text" json:"summary"`
	Link        string    `gorm:"size:500" json:"link"`
	Order       int       `gorm:"column:sort_order" json:"order"`
	Visible     bool      `gorm:"default:true" json:"visible"`
	PublishedAt time.Time `gorm:"column:published_at" json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// GetPerson returns the site owner's record, nil when not configured yet.
func GetPerson(db *gorm.DB) (*Person, error) {
	var p Person
	if err := db.First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// GetAbout returns the introduction section, nil when not configured yet.
func GetAbout(db *gorm.DB) (*About, error) {
	var a About
	if err := db.First(&a).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func ExperiencesByType(db *gorm.DB, expType string) ([]Experience, error) {
	var out []Experience
	err := db.Where("type = ? AND visible = ?", expType, true).
		Order("sort_order ASC").Find(&out).Error
	return out, err
}

func EducationList(db *gorm.DB) ([]Education, error) {
	var out []Education
	err := db.Order("sort_order ASC").Find(&out).Error
	return out, err
}

func SkillList(db *gorm.DB) ([]Skill, error) {
	var out []Skill
	err := db.Order("sort_order ASC").Find(&out).Error
	return out, err
}

func CertificationList(db *gorm.DB) ([]Certification, error) {
	var out []Certification
	err := db.Order("sort_order ASC").Find(&out).Error
	return out, err
}

func SocialLinkList(db *gorm.DB) ([]SocialLink, error) {
	var out []SocialLink
	err := db.Order("sort_order ASC").Find(&out).Error
	return out, err
}

func VisiblePosts(db *gorm.DB) ([]Post, error) {
	var out []Post
	err := db.Where("visible = ?", true).Order("published_at DESC").Find(&out).Error
	return out, err
}

func PostBySlug(db *gorm.DB, slug string) (*Post, error) {
	var p Post
	if err := db.Where("slug = ? AND visible = ?", slug, true).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func VisibleProjects(db *gorm.DB) ([]Project, error) {
	var out []Project
	err := db.Where("visible = ?", true).Order("sort_order ASC").Find(&out).Error
	return out, err
}

func ProjectBySlug(db *gorm.DB, slug string) (*Project, error) {
	var p Project
	if err := db.Where("slug = ? AND visible = ?", slug, true).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
