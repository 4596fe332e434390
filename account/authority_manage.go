package account

import (
	"errors"
	"fmt"
	"os"
	"pdis/authority"
	"pdis/domain"
	"pdis/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	systemAdminRole        = Role{ID: "system-admin", Title: "System Administrator"}
	SystemAdminPermission  = Permission{ID: "system:admin", Title: "System Administration"}
	systemAdminRoleBinding = RolePermissionBinding{ID: 1, RoleID: systemAdminRole.ID, PermissionID: SystemAdminPermission.ID}
)

var (
	LoadPermFunc = loadPerms
)

func LoadPermFuncReset() {
	LoadPermFunc = loadPerms
}

func DefaultSecurityConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	if err := db.Save(&systemAdminRole).Error; err != nil {
		return err
	}
	if err := db.Save(&SystemAdminPermission).Error; err != nil {
		return err
	}
	if err := db.Save(&systemAdminRoleBinding).Error; err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := User{}
		err := tx.Model(&User{}).Where(&User{ID: 1}).First(&admin).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			initialAdminPassword := os.Getenv("INITIAL_ADMIN_PASSWORD")
			if initialAdminPassword == "" {
				initialAdminPassword = "admin123"
			}
			if err := tx.Save(&User{ID: 1, Name: "admin", Secret: HashSha256(initialAdminPassword)}).Error; err != nil {
				return err
			}
		}
		return tx.Save(&UserRoleBinding{ID: 1, UserID: 1, RoleID: systemAdminRole.ID}).Error
	})
}

// project member relationships are the metadata of project permissions
func loadPerms(uid types.ID) (authority.Permissions, authority.ProjectRoles) {
	var perms []string
	var projectRoles []authority.ProjectRole
	db := persistence.ActiveDataSourceManager.GormDB(nil)

	var systemRoles []string
	if err := db.Model(&UserRoleBinding{}).Where(&UserRoleBinding{UserID: uid}).Pluck("role_id", &systemRoles).Error; err != nil {
		panic(err)
	}

	if len(systemRoles) > 0 {
		var systemPerms []string
		if err := db.Model(&RolePermissionBinding{}).Where("role_id IN (?)", systemRoles).Pluck("permission_id", &systemPerms).Error; err != nil {
			panic(err)
		}
		perms = append(perms, systemPerms...)

		// system roles see every project
		var projects []domain.Project
		if err := db.Model(&domain.Project{}).Scan(&projects).Error; err != nil {
			panic(err)
		}
		for _, project := range projects {
			perms = append(perms, fmt.Sprintf("%s_%d", domain.ProjectRoleManager, project.ID))
			projectRoles = append(projectRoles, authority.ProjectRole{
				ProjectID: project.ID, ProjectName: project.Name, Role: domain.ProjectRoleManager,
			})
		}
	} else {
		var members []domain.ProjectMember
		var visibleProjectIds []types.ID
		if err := db.Model(&domain.ProjectMember{}).Where(&domain.ProjectMember{MemberId: uid}).Scan(&members).Error; err != nil {
			panic(err)
		}
		for _, member := range members {
			perms = append(perms, fmt.Sprintf("%s_%d", member.Role, member.ProjectId))
			visibleProjectIds = append(visibleProjectIds, member.ProjectId)
		}

		names := map[types.ID]string{}
		if len(visibleProjectIds) > 0 {
			var visibleProjects []domain.Project
			if err := db.Model(&domain.Project{}).Where("id in (?)", visibleProjectIds).Scan(&visibleProjects).Error; err != nil {
				panic(err)
			}
			for _, project := range visibleProjects {
				names[project.ID] = project.Name
			}
		}
		for _, member := range members {
			projectRoles = append(projectRoles, authority.ProjectRole{
				ProjectID: member.ProjectId, ProjectName: names[member.ProjectId], Role: member.Role,
			})
		}
	}

	if perms == nil {
		perms = []string{}
	}
	if projectRoles == nil {
		projectRoles = []authority.ProjectRole{}
	}
	return perms, projectRoles
}
