package namespace_test

import (
	"context"
	"pdis/account"
	"pdis/bizerror"
	"pdis/domain"
	"pdis/domain/namespace"
	"pdis/persistence"
	"pdis/testinfra"
	"testing"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("pdis")
	assert.Nil(t, db.DS.GormDB(context.Background()).AutoMigrate(
		&domain.Project{}, &domain.ProjectMember{}).Error)
	persistence.ActiveDataSourceManager = db.DS
	*testDatabase = db
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestCreateProject(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should be admin only", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, err := namespace.CreateProject(&domain.ProjectCreating{Name: "portal", Identifier: "POR"},
			testinfra.BuildSession(100, domain.ProjectRoleManager+"_1"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should create project with creator as manager member", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, account.SystemAdminPermission.ID)
		p, err := namespace.CreateProject(&domain.ProjectCreating{Name: "portal", Identifier: "POR"}, s)
		Expect(err).To(BeNil())
		Expect(p.Name).To(Equal("portal"))
		Expect(p.NextFormId).To(Equal(1))

		var members []domain.ProjectMember
		Expect(persistence.ActiveDataSourceManager.GormDB(context.Background()).Find(&members).Error).To(BeNil())
		Expect(members).To(HaveLen(1))
		Expect(members[0].MemberId).To(Equal(types.ID(100)))
		Expect(members[0].Role).To(Equal(domain.ProjectRoleManager))
	})

	t.Run("should refuse duplicate identifiers", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, account.SystemAdminPermission.ID)
		_, err := namespace.CreateProject(&domain.ProjectCreating{Name: "portal", Identifier: "POR"}, s)
		Expect(err).To(BeNil())
		_, err = namespace.CreateProject(&domain.ProjectCreating{Name: "portal two", Identifier: "POR"}, s)
		Expect(err).ToNot(BeNil())
	})
}

func TestNextFormIdentifier(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should sequence identifiers from the project counter", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, account.SystemAdminPermission.ID)
		p, err := namespace.CreateProject(&domain.ProjectCreating{Name: "portal", Identifier: "POR"}, s)
		Expect(err).To(BeNil())

		txErr := persistence.ActiveDataSourceManager.GormDB(context.Background()).Transaction(func(tx *gorm.DB) error {
			identifier, err := namespace.NextFormIdentifier(p.ID, tx)
			Expect(err).To(BeNil())
			Expect(identifier).To(Equal("POR-1"))

			identifier, err = namespace.NextFormIdentifier(p.ID, tx)
			Expect(err).To(BeNil())
			Expect(identifier).To(Equal("POR-2"))
			return nil
		})
		Expect(txErr).To(BeNil())

		reloaded := domain.Project{}
		Expect(persistence.ActiveDataSourceManager.GormDB(context.Background()).
			Where(&domain.Project{ID: p.ID}).First(&reloaded).Error).To(BeNil())
		Expect(reloaded.NextFormId).To(Equal(3))
	})

	t.Run("should fail for unknown projects", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		txErr := persistence.ActiveDataSourceManager.GormDB(context.Background()).Transaction(func(tx *gorm.DB) error {
			_, err := namespace.NextFormIdentifier(404, tx)
			return err
		})
		Expect(txErr).To(Equal(gorm.ErrRecordNotFound))
	})
}

func TestQueryProjectNames(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should map known ids and skip unknown ones", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, account.SystemAdminPermission.ID)
		p, err := namespace.CreateProject(&domain.ProjectCreating{Name: "portal", Identifier: "POR"}, s)
		Expect(err).To(BeNil())

		names, err := namespace.QueryProjectNames([]types.ID{p.ID, 404})
		Expect(err).To(BeNil())
		Expect(names).To(Equal(map[types.ID]string{p.ID: "portal"}))

		names, err = namespace.QueryProjectNames([]types.ID{})
		Expect(err).To(BeNil())
		Expect(names).To(BeEmpty())
	})
}
