package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
)

func TestOwnerContactsForParent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstituteRepository(db)

	mock.ExpectQuery(`FROM enrollments e\s+JOIN institutes i ON i.id = e.institute_id\s+JOIN users u ON u.id = i.owner_id\s+WHERE e.parent_id = \$1`).
		WithArgs("parent-1").
		WillReturnRows(sqlmock.NewRows([]string{"institute_id", "institute_name", "contact_number", "owner_id", "owner_name", "owner_email"}).
			AddRow("inst-1", "Valley Sports", "9800000000", "owner-1", "Olga", "olga@example.com"))

	contacts, err := repo.OwnerContactsForParent(context.Background(), "parent-1")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "owner-1", contacts[0].OwnerID)
	assert.Equal(t, "Valley Sports", contacts[0].InstituteName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchEscapesLikeWildcards(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstituteRepository(db)

	mock.ExpectQuery(`address ILIKE \$1 AND sports_offered ILIKE \$2 ORDER BY name ASC`).
		WithArgs(`%50\%%`, "%foot%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Search(context.Background(), models.InstituteFilter{Location: "50%", Sport: " foot "})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
