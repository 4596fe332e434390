package directory

import (
	"encoding/json"
	"pdis/account"
	"pdis/bizerror"
	"pdis/client/es"
	"pdis/persistence"
	"pdis/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	EntryIndexName = "directory-entries"

	SearchEntriesFunc       = SearchEntries
	IndexEntriesFunc        = IndexEntries
	DeleteEntryDocumentFunc = DeleteEntryDocument
	ReindexEntriesFunc      = ReindexEntries
)

type EntryDocument struct {
	DirectoryEntry
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	msg := "batch action partially failed:"
	for id, err := range e {
		msg += " " + id.String() + ": " + err.Error() + ";"
	}
	return msg
}

func IndexEntries(entries []DirectoryEntry, s *session.Session) error {
	errs := BatchActionError{}
	for _, entry := range entries {
		if err := es.IndexFunc(EntryIndexName, entry.ID, EntryDocument{DirectoryEntry: entry}, s); err != nil {
			errs[entry.ID] = err
			logrus.Warnf("index directory entry %d %s: %v\n", entry.ID, entry.Name, err)
		} else {
			logrus.Infof("index directory entry %d %s successfully\n", entry.ID, entry.Name)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func DeleteEntryDocument(id types.ID, s *session.Session) error {
	return es.DeleteDocumentByIdFunc(EntryIndexName, id, s)
}

func SearchEntries(q EntryQuery, s *session.Session) ([]DirectoryEntry, error) {
	filters := make([]es.H, 0, 3)
	if q.Kind != "" {
		filters = append(filters, es.H{"term": es.H{"kind": q.Kind}})
	}
	if q.Query != "" {
		filters = append(filters, es.H{"bool": es.H{"should": []es.H{
			{"match": es.H{"name": es.H{"query": q.Query, "operator": "AND"}}},
			{"match": es.H{"organization": es.H{"query": q.Query, "operator": "AND"}}},
		}}})
	}

	query := es.H{
		"size":  1000,
		"query": es.H{"bool": es.H{"filter": filters}},
		"sort":  []es.H{{"id": es.H{"order": "asc"}}},
	}

	result, err := es.SearchFunc(EntryIndexName, query, s)
	if err != nil {
		return nil, err
	}

	entries := make([]DirectoryEntry, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		doc := EntryDocument{}
		if err := json.Unmarshal([]byte(hit.Source), &doc); err != nil {
			return nil, err
		}
		entries = append(entries, doc.DirectoryEntry)
	}
	return entries, nil
}

// ReindexEntries walks the directory table and refreshes every document.
func ReindexEntries(s *session.Session) (int, error) {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return 0, bizerror.ErrForbidden
	}

	var entries []DirectoryEntry
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Model(&DirectoryEntry{}).Order("id ASC").Find(&entries).Error; err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := IndexEntriesFunc(entries, s); err != nil {
		return 0, err
	}
	return len(entries), nil
}
