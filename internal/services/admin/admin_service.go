package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/repository"
)

type ProfileLister interface {
	List(ctx context.Context) ([]models.Profile, error)
}

type SkillLister interface {
	List(ctx context.Context, q repository.SkillQuery) ([]models.Skill, error)
}

// Service backs the admin listing pages. Access control is the route's job.
type Service struct {
	profiles ProfileLister
	skills   SkillLister
}

func NewService(profiles ProfileLister, skills SkillLister) *Service {
	return &Service{profiles: profiles, skills: skills}
}

func (s *Service) Users(ctx context.Context) ([]models.Profile, error) {
	out, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// Skills lists every skill, unpaged.
func (s *Service) Skills(ctx context.Context) ([]models.Skill, error) {
	out, err := s.skills.List(ctx, repository.SkillQuery{})
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return out, nil
}

const (
	usersSheet  = "Users"
	skillsSheet = "Skills"
)

// Export writes a workbook with a Users and a Skills sheet.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	users, err := s.Users(ctx)
	if err != nil {
		return err
	}
	skills, err := s.Skills(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	userRows := make([][]any, 0, len(users))
	for _, u := range users {
		userRows = append(userRows, []any{u.ID.String(), u.Name, u.Email, u.Phone, string(u.Role), u.CreatedAt.Format("2006-01-02 15:04")})
	}
	if err := writeSheet(f, usersSheet, header, []any{"ID", "Name", "Email", "Phone", "Role", "Joined"}, userRows); err != nil {
		return err
	}

	skillRows := make([][]any, 0, len(skills))
	for _, sk := range skills {
		provider := ""
		if sk.Provider != nil {
			provider = sk.Provider.Name
		}
		skillRows = append(skillRows, []any{sk.ID.String(), sk.Title, sk.Category, sk.Price, provider, sk.CreatedAt.Format("2006-01-02 15:04")})
	}
	if err := writeSheet(f, skillsSheet, header, []any{"ID", "Title", "Category", "Price", "Provider", "Created"}, skillRows); err != nil {
		return err
	}

	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(usersSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, headerStyle int, header []any, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	_ = f.SetCellStyle(name, "A1", last, headerStyle)

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		r := row
		if err := f.SetSheetRow(name, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, i+2, err)
		}
	}
	_ = f.SetColWidth(name, "A", "A", 38)
	_ = f.SetColWidth(name, "B", "F", 22)
	return nil
}
