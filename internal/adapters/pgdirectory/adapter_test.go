// internal/adapters/pgdirectory/adapter_test.go
package pgdirectory

import (
	"context"
	"testing"

	"sante-search/internal/common/database"
	"sante-search/internal/common/logger"
	"sante-search/internal/search"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedClient(t *testing.T) (*database.PostgresClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &database.PostgresClient{DB: db}, mock
}

func roleColumns() []string {
	return []string{"id", "family_name", "given_name", "prefix", "profession_code", "organization_id"}
}

func TestSpecialtyAdapter_Search(t *testing.T) {
	pg, mock := newMockedClient(t)
	adapter := NewSpecialtyAdapter(pg, logger.NewNoOpLogger())
	assert.Equal(t, search.CategoryPractitionerBySpecialty, adapter.Category())

	mock.ExpectQuery("FROM practitioner_roles").
		WithArgs("31", 3).
		WillReturnRows(sqlmock.NewRows(roleColumns()).
			AddRow("role-1", "Durand", "Claire", "Mme", "31", "org-9").
			AddRow("role-2", "Petit", nil, nil, "31", nil))

	items, err := adapter.Search(context.Background(), search.Params{SpecialtyCode: "31", Count: 3})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "role-1", items[0][search.ItemKeyID])
	assert.Equal(t, "Durand", items[0][search.ItemKeyFamily])
	assert.Equal(t, "Claire", items[0][search.ItemKeyGiven])
	assert.Equal(t, "org-9", items[0][search.ItemKeyOrgRef])

	_, hasGiven := items[1][search.ItemKeyGiven]
	assert.False(t, hasGiven)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpecialtyAdapter_DefaultCount(t *testing.T) {
	pg, mock := newMockedClient(t)
	adapter := NewSpecialtyAdapter(pg, logger.NewNoOpLogger())

	mock.ExpectQuery("FROM practitioner_roles").
		WithArgs("60", 10).
		WillReturnRows(sqlmock.NewRows(roleColumns()))

	items, err := adapter.Search(context.Background(), search.Params{SpecialtyCode: "60"})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNameAdapter_Search(t *testing.T) {
	pg, mock := newMockedClient(t)
	adapter := NewNameAdapter(pg, logger.NewNoOpLogger())
	assert.Equal(t, search.CategoryPractitionerByName, adapter.Category())

	mock.ExpectQuery("FROM practitioner_roles").
		WithArgs("Dupont", "Jean", 10).
		WillReturnRows(sqlmock.NewRows(roleColumns()).
			AddRow("role-3", "Dupont", "Jean", "Dr", "60", "org-1"))

	items, err := adapter.Search(context.Background(), search.Params{
		FamilyName: "Dupont",
		GivenName:  "Jean",
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Dupont", items[0][search.ItemKeyFamily])
	assert.Equal(t, "Dr", items[0][search.ItemKeyPrefix])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpecialtyAdapter_QueryError(t *testing.T) {
	pg, mock := newMockedClient(t)
	adapter := NewSpecialtyAdapter(pg, logger.NewNoOpLogger())

	mock.ExpectQuery("FROM practitioner_roles").
		WillReturnError(assert.AnError)

	_, err := adapter.Search(context.Background(), search.Params{SpecialtyCode: "86"})
	assert.Error(t, err)
}
