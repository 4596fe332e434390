package namespace

import (
	"errors"
	"fmt"
	"pdis/account"
	"pdis/bizerror"
	"pdis/domain"
	"pdis/idgen"
	"pdis/persistence"
	"pdis/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	projectIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryProjectsFunc = QueryProjects
	CreateProjectFunc = CreateProject
	UpdateProjectFunc = UpdateProject
)

func QueryProjects(s *session.Session) (*[]domain.Project, error) {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	var projects []domain.Project
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Find(&projects).Error; err != nil {
		return nil, err
	}
	return &projects, nil
}

func CreateProject(c *domain.ProjectCreating, s *session.Session) (*domain.Project, error) {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	now := time.Now()
	p := domain.Project{ID: idgen.NextID(projectIdWorker), Name: c.Name, Identifier: c.Identifier,
		NextFormId: 1, CreateTime: now, Creator: s.Identity.ID}
	m := domain.ProjectMember{ProjectId: p.ID, MemberId: s.Identity.ID, Role: domain.ProjectRoleManager, CreateTime: now}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func UpdateProject(id types.ID, d *domain.ProjectUpdating, s *session.Session) error {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		var project domain.Project
		if err := tx.Where(domain.Project{ID: id}).First(&project).Error; err != nil {
			return err
		}

		return tx.Model(&domain.Project{ID: id}).Where(domain.Project{ID: id}).
			Update(domain.Project{Name: d.Name}).Error
	})
}

func QueryProjectRole(projectId types.ID, s *session.Session) (string, error) {
	m := domain.ProjectMember{ProjectId: projectId, MemberId: s.Identity.ID}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	var founds []domain.ProjectMember
	if err := db.Model(domain.ProjectMember{}).Where(&m).Find(&founds).Error; err != nil || len(founds) == 0 {
		return "", err
	}
	return founds[0].Role, nil
}

// NextFormIdentifier consumes the project's form counter inside tx.
func NextFormIdentifier(projectId types.ID, tx *gorm.DB) (string, error) {
	project := domain.Project{}
	if err := tx.Where(&domain.Project{ID: projectId}).First(&project).Error; err != nil {
		return "", err
	}

	identifier := fmt.Sprintf("%s-%d", project.Identifier, project.NextFormId)
	db := tx.Model(&domain.Project{}).Where(&domain.Project{ID: projectId, NextFormId: project.NextFormId}).
		Update("next_form_id", project.NextFormId+1)
	if db.Error != nil {
		return "", db.Error
	}
	if db.RowsAffected != 1 {
		return "", errors.New("concurrent modification")
	}
	return identifier, nil
}

func QueryProjectNames(ids []types.ID) (map[types.ID]string, error) {
	if len(ids) == 0 {
		return map[types.ID]string{}, nil
	}
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	var records []domain.Project
	if err := db.Model(&domain.Project{}).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	result := map[types.ID]string{}
	for _, r := range records {
		result[r.ID] = r.Name
	}
	return result, nil
}
