// internal/adapters/pgdirectory/adapter.go
package pgdirectory

import (
	"context"
	"database/sql"

	"sante-search/internal/common/database"
	"sante-search/internal/common/errors"
	"sante-search/internal/common/logger"
	"sante-search/internal/search"
)

const specialtyQuery = `
SELECT r.id, p.family_name, p.given_name, p.prefix, r.profession_code, r.organization_id
FROM practitioner_roles r
JOIN practitioners p ON p.id = r.practitioner_id
WHERE r.profession_code = $1 AND r.active
ORDER BY p.family_name, p.given_name
LIMIT $2`

const nameQuery = `
SELECT r.id, p.family_name, p.given_name, p.prefix, r.profession_code, r.organization_id
FROM practitioner_roles r
JOIN practitioners p ON p.id = r.practitioner_id
WHERE lower(p.family_name) = lower($1)
  AND ($2 = '' OR lower(p.given_name) = lower($2))
  AND r.active
ORDER BY p.family_name, p.given_name
LIMIT $3`

// SpecialtyAdapter searches the local practitioner directory replica by
// profession code. The replica carries no address columns, so geographic
// narrowing stays with the executor's refinement pass.
type SpecialtyAdapter struct {
	pg     *database.PostgresClient
	logger logger.Logger
}

func NewSpecialtyAdapter(pg *database.PostgresClient, log logger.Logger) *SpecialtyAdapter {
	return &SpecialtyAdapter{pg: pg, logger: log}
}

func (a *SpecialtyAdapter) Category() search.Category {
	return search.CategoryPractitionerBySpecialty
}

func (a *SpecialtyAdapter) Search(ctx context.Context, params search.Params) ([]search.Item, error) {
	count := params.Count
	if count <= 0 {
		count = 10
	}
	rows, err := a.pg.Query(ctx, specialtyQuery, params.SpecialtyCode, count)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("practitioner_roles", err)
	}
	defer rows.Close()
	return scanRoleRows(rows)
}

// NameAdapter searches the same replica by practitioner name.
type NameAdapter struct {
	pg     *database.PostgresClient
	logger logger.Logger
}

func NewNameAdapter(pg *database.PostgresClient, log logger.Logger) *NameAdapter {
	return &NameAdapter{pg: pg, logger: log}
}

func (a *NameAdapter) Category() search.Category {
	return search.CategoryPractitionerByName
}

func (a *NameAdapter) Search(ctx context.Context, params search.Params) ([]search.Item, error) {
	count := params.Count
	if count <= 0 {
		count = 10
	}
	rows, err := a.pg.Query(ctx, nameQuery, params.FamilyName, params.GivenName, count)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("practitioners", err)
	}
	defer rows.Close()
	return scanRoleRows(rows)
}

func scanRoleRows(rows *sql.Rows) ([]search.Item, error) {
	items := []search.Item{}
	for rows.Next() {
		var id, family, professionCode string
		var given, prefix, orgID sql.NullString
		if err := rows.Scan(&id, &family, &given, &prefix, &professionCode, &orgID); err != nil {
			return nil, errors.NewQueryExecutionFailedError("practitioner_roles", err)
		}
		item := search.Item{
			search.ItemKeyID:         id,
			search.ItemKeyFamily:     family,
			search.ItemKeyProfession: professionCode,
		}
		if given.Valid {
			item[search.ItemKeyGiven] = given.String
		}
		if prefix.Valid {
			item[search.ItemKeyPrefix] = prefix.String
		}
		if orgID.Valid {
			item[search.ItemKeyOrgRef] = orgID.String
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("practitioner_roles", err)
	}
	return items, nil
}
