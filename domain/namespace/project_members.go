package namespace

import (
	"fmt"
	"pdis/account"
	"pdis/bizerror"
	"pdis/domain"
	"pdis/persistence"
	"pdis/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	QueryProjectNamesFunc    = QueryProjectNames
	QueryAccountNamesFunc    = account.QueryAccountNames
	DetailProjectMembersFunc = DetailProjectMembers

	CreateProjectMemberFunc       = CreateProjectMember
	QueryProjectMemberDetailsFunc = QueryProjectMemberDetails
	DeleteProjectMemberFunc       = DeleteProjectMember
)

func CreateProjectMember(d *domain.ProjectMemberCreation, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if !s.Perms.HasRole(account.SystemAdminPermission.ID) &&
			!s.Perms.HasRole(fmt.Sprintf("%s_%d", domain.ProjectRoleManager, d.ProjectID)) {
			return bizerror.ErrForbidden
		}

		// non system administrators can not grant for themselves
		if !s.Perms.HasRole(account.SystemAdminPermission.ID) && s.Identity.ID == d.MemberId {
			return bizerror.ErrProjectMemberSelfGrant
		}

		project := domain.Project{ID: d.ProjectID}
		if err := tx.Model(&domain.Project{}).Where(&project).First(&project).Error; err != nil {
			return err
		}

		user := account.User{ID: d.MemberId}
		if err := tx.Model(&account.User{}).Where(&user).First(&user).Error; err != nil {
			return err
		}

		// update when exist
		record := domain.ProjectMember{ProjectId: d.ProjectID, MemberId: d.MemberId, Role: d.Role, CreateTime: time.Now()}
		return tx.Save(&record).Error
	})
}

func QueryProjectMemberDetails(d *domain.ProjectMemberQuery, s *session.Session) (*[]domain.ProjectMemberDetail, error) {
	dbQuery := persistence.ActiveDataSourceManager.GormDB(s.Context).Model(&domain.ProjectMember{})

	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		dbQuery = dbQuery.Where("project_id IN (?)", s.VisibleProjects())
	}
	if d.ProjectID != nil {
		dbQuery = dbQuery.Where("project_id = ?", d.ProjectID)
	}
	if d.MemberID != nil {
		dbQuery = dbQuery.Where("member_id = ?", d.MemberID)
	}

	var result []domain.ProjectMember
	if err := dbQuery.Find(&result).Error; err != nil {
		return nil, err
	}

	return DetailProjectMembersFunc(&result)
}

func DetailProjectMembers(pms *[]domain.ProjectMember) (*[]domain.ProjectMemberDetail, error) {
	if pms == nil {
		return &[]domain.ProjectMemberDetail{}, nil
	}

	var projectIds []types.ID
	var memberIds []types.ID
	for _, pm := range *pms {
		projectIds = append(projectIds, pm.ProjectId)
		memberIds = append(memberIds, pm.MemberId)
	}

	projectIdNameMap, err := QueryProjectNamesFunc(projectIds)
	if err != nil {
		return nil, err
	}
	memberIdNameMap, err := QueryAccountNamesFunc(memberIds)
	if err != nil {
		return nil, err
	}

	details := []domain.ProjectMemberDetail{}
	for _, pm := range *pms {
		detail := domain.ProjectMemberDetail{ProjectMember: pm, ProjectName: "Unknown", MemberName: "Unknown"}
		if projectName, found := projectIdNameMap[pm.ProjectId]; found {
			detail.ProjectName = projectName
		}
		if accountName, found := memberIdNameMap[pm.MemberId]; found {
			detail.MemberName = accountName
		}
		details = append(details, detail)
	}

	return &details, nil
}

func DeleteProjectMember(d *domain.ProjectMemberDeletion, s *session.Session) error {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) &&
		!s.Perms.HasRole(fmt.Sprintf("%s_%d", domain.ProjectRoleManager, d.ProjectID)) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	return db.Delete(&domain.ProjectMember{}, &domain.ProjectMember{ProjectId: d.ProjectID, MemberId: d.MemberID}).Error
}
