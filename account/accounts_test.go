package account_test

import (
	"context"
	"pdis/account"
	"pdis/bizerror"
	"pdis/domain"
	"pdis/persistence"
	"pdis/testinfra"
	"testing"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("pdis")
	assert.Nil(t, db.DS.GormDB(context.Background()).AutoMigrate(
		&account.User{}, &account.Role{}, &account.Permission{},
		&account.RolePermissionBinding{}, &account.UserRoleBinding{},
		&domain.Project{}, &domain.ProjectMember{}).Error)
	persistence.ActiveDataSourceManager = db.DS
	*testDatabase = db
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestCreateUser(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should be admin only", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, err := account.CreateUser(&account.UserCreation{Name: "ann", Secret: "abc123"},
			testinfra.BuildSession(100, "manager_1"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should persist users with hashed secrets", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		info, err := account.CreateUser(&account.UserCreation{Name: "ann", Secret: "abc123", Nickname: "Ann"},
			testinfra.BuildSession(100, account.SystemAdminPermission.ID))
		Expect(err).To(BeNil())
		Expect(info.Name).To(Equal("ann"))

		user := account.User{}
		Expect(persistence.ActiveDataSourceManager.GormDB(context.Background()).
			Where(&account.User{Name: "ann"}).First(&user).Error).To(BeNil())
		Expect(user.Secret).To(Equal(account.HashSha256("abc123")))
		Expect(user.Secret).ToNot(Equal("abc123"))
	})
}

func TestUpdateBasicAuthSecret(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should verify the original secret", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		admin := testinfra.BuildSession(100, account.SystemAdminPermission.ID)
		info, err := account.CreateUser(&account.UserCreation{Name: "ann", Secret: "abc123"}, admin)
		Expect(err).To(BeNil())

		self := testinfra.BuildSession(info.ID)
		err = account.UpdateBasicAuthSecret(&account.BasicAuthUpdating{
			OriginalSecret: "wrong", NewSecret: "def456"}, self)
		Expect(err).To(Equal(bizerror.ErrInvalidPassword))

		Expect(account.UpdateBasicAuthSecret(&account.BasicAuthUpdating{
			OriginalSecret: "abc123", NewSecret: "def456"}, self)).To(BeNil())

		user := account.User{}
		Expect(persistence.ActiveDataSourceManager.GormDB(context.Background()).
			Where(&account.User{Name: "ann"}).First(&user).Error).To(BeNil())
		Expect(user.Secret).To(Equal(account.HashSha256("def456")))
	})
}

func TestQueryAccountNames(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should prefer nicknames and skip unknown ids", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		admin := testinfra.BuildSession(100, account.SystemAdminPermission.ID)
		withNickname, err := account.CreateUser(&account.UserCreation{Name: "ann", Secret: "abc123", Nickname: "Ann"}, admin)
		Expect(err).To(BeNil())
		plain, err := account.CreateUser(&account.UserCreation{Name: "bob", Secret: "abc123"}, admin)
		Expect(err).To(BeNil())

		names, err := account.QueryAccountNames([]types.ID{withNickname.ID, plain.ID, 404})
		Expect(err).To(BeNil())
		Expect(names).To(Equal(map[types.ID]string{withNickname.ID: "Ann", plain.ID: "bob"}))
	})
}

func TestDefaultSecurityConfiguration(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should seed the admin account with bindings", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		Expect(account.DefaultSecurityConfiguration()).To(BeNil())

		admin := account.User{}
		Expect(persistence.ActiveDataSourceManager.GormDB(context.Background()).
			Where(&account.User{Name: "admin"}).First(&admin).Error).To(BeNil())

		perms, _ := account.LoadPermFunc(admin.ID)
		Expect(perms.HasRole(account.SystemAdminPermission.ID)).To(BeTrue())
	})
}
