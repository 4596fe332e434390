package directory

import (
	"errors"
	"pdis/account"
	"pdis/bizerror"
	"pdis/idgen"
	"pdis/persistence"
	"pdis/session"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

var (
	entryIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateEntryFunc = CreateEntry
	UpdateEntryFunc = UpdateEntry
	DeleteEntryFunc = DeleteEntry
	DetailEntryFunc = DetailEntry

	ResolveNameFunc = ResolveName
)

// CanonicalName trims and single-spaces a registered name. Name comparison
// elsewhere is case-insensitive over this canonical form.
func CanonicalName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func CreateEntry(c *EntryCreation, s *session.Session) (*DirectoryEntry, error) {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	entry := DirectoryEntry{
		ID: idgen.NextID(entryIdWorker), Kind: c.Kind,
		Name: CanonicalName(c.Name), Organization: c.Organization, Email: c.Email, Phone: c.Phone,
		Active:     true,
		CreateTime: types.CurrentTimestamp(), CreatorID: s.Identity.ID,
	}
	if entry.Name == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("name is blank")}
	}

	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&entry).Error; err != nil {
		return nil, err
	}

	if err := IndexEntriesFunc([]DirectoryEntry{entry}, s); err != nil {
		logrus.Warnf("index directory entry %d failed: %v", entry.ID, err)
	}
	return &entry, nil
}

func UpdateEntry(id types.ID, u *EntryUpdating, s *session.Session) (*DirectoryEntry, error) {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	var entry DirectoryEntry
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&DirectoryEntry{ID: id}).First(&entry).Error; err != nil {
			return err
		}

		changes := map[string]interface{}{
			"organization": u.Organization, "email": u.Email, "phone": u.Phone,
		}
		if u.Active != nil {
			changes["active"] = *u.Active
		}
		if err := tx.Model(&DirectoryEntry{ID: id}).Update(changes).Error; err != nil {
			return err
		}
		return tx.Where(&DirectoryEntry{ID: id}).First(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	if err := IndexEntriesFunc([]DirectoryEntry{entry}, s); err != nil {
		logrus.Warnf("index directory entry %d failed: %v", entry.ID, err)
	}
	return &entry, nil
}

func DeleteEntry(id types.ID, s *session.Session) error {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return bizerror.ErrForbidden
	}

	err := persistence.ActiveDataSourceManager.GormDB(s.Context).
		Delete(&DirectoryEntry{}, &DirectoryEntry{ID: id}).Error
	if err != nil {
		return err
	}

	if err := DeleteEntryDocumentFunc(id, s); err != nil {
		logrus.Warnf("delete directory entry document %d failed: %v", id, err)
	}
	return nil
}

func DetailEntry(id types.ID, s *session.Session) (*DirectoryEntry, error) {
	var entry DirectoryEntry
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&DirectoryEntry{ID: id}).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// ResolveName resolves a free-text personnel name to the canonical name of an
// active personnel entry. The match is case-insensitive over canonical forms.
func ResolveName(name string, s *session.Session) (string, error) {
	canonical := CanonicalName(name)
	if canonical == "" {
		return "", &bizerror.ErrBadParam{Cause: errors.New("personnel name is blank")}
	}

	var entry DirectoryEntry
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Where("kind = ? AND active = ? AND LOWER(name) = ?",
		EntryKindPersonnel, true, strings.ToLower(canonical)).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", bizerror.ErrNotFound
		}
		return "", err
	}
	return entry.Name, nil
}
