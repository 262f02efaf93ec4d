package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/buyergroup-cli/internal/model"
)

// newMockReports creates a PostgresReports backed by pgxmock for unit testing.
func newMockReports(t *testing.T) (*PostgresReports, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresReports{pool: mock}
	return s, mock
}

func sampleReport() *model.Report {
	return &model.Report{
		RunID:       "run-1",
		Target:      model.Target{CompanyName: "Dell Technologies", Aliases: []string{"Dell"}},
		ProfileName: "enterprise-saas",
		BuyerGroup: model.BuyerGroup{
			Roles: map[model.Role][]model.RoleAssignment{
				model.RoleDecision: {{
					PersonID: "p1", FullName: "Ada Smith", Title: "CFO", Department: "finance",
					Role: model.RoleDecision, Score: 0.9, Confidence: 0.95,
					InfluenceScore: 7.5, DecisionPower: 0.6,
				}},
				model.RoleChampion: {{
					PersonID: "p2", FullName: "Ben Jones", Title: "VP Sales", Department: "sales",
					Role: model.RoleChampion, Score: 0.78, Confidence: 0.9,
					InfluenceScore: 6.0, DecisionPower: 0.55,
				}},
			},
			TotalMembers:      2,
			OverallConfidence: 0.92,
		},
		CreditsUsed:  model.CreditsUsed{Search: 4, Collect: 40},
		EstimatedUSD: 0.088,
	}
}

func TestPostgresReports_SaveReport(t *testing.T) {
	s, mock := newMockReports(t)

	mock.ExpectExec(`INSERT INTO buyer_group_reports`).
		WithArgs(pgxmock.AnyArg(), "run-1", "Dell Technologies", "enterprise-saas",
			pgxmock.AnyArg(), 2, 44, 0.088, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM buyer_group_members`).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"buyer_group_members"}, memberColumns).
		WillReturnResult(2)

	err := s.SaveReport(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReports_SaveReport_EmptyGroup(t *testing.T) {
	s, mock := newMockReports(t)

	report := sampleReport()
	report.BuyerGroup.Roles = nil
	report.BuyerGroup.TotalMembers = 0

	// No members means no COPY.
	mock.ExpectExec(`INSERT INTO buyer_group_reports`).
		WithArgs(pgxmock.AnyArg(), "run-1", "Dell Technologies", "enterprise-saas",
			pgxmock.AnyArg(), 0, 44, 0.088, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM buyer_group_members`).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.SaveReport(context.Background(), report)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReports_SaveReport_NilReport(t *testing.T) {
	s, mock := newMockReports(t)

	err := s.SaveReport(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil report")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReports_SaveReport_InsertError(t *testing.T) {
	s, mock := newMockReports(t)

	mock.ExpectExec(`INSERT INTO buyer_group_reports`).
		WithArgs(pgxmock.AnyArg(), "run-1", "Dell Technologies", "enterprise-saas",
			pgxmock.AnyArg(), 2, 44, 0.088, pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	err := s.SaveReport(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save report")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReports_SaveReport_ShortCopy(t *testing.T) {
	s, mock := newMockReports(t)

	mock.ExpectExec(`INSERT INTO buyer_group_reports`).
		WithArgs(pgxmock.AnyArg(), "run-1", "Dell Technologies", "enterprise-saas",
			pgxmock.AnyArg(), 2, 44, 0.088, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM buyer_group_members`).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"buyer_group_members"}, memberColumns).
		WillReturnResult(1)

	err := s.SaveReport(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copied 1 of 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReports_Migrate(t *testing.T) {
	s, mock := newMockReports(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS buyer_group_reports`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	err := s.Migrate(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReports_Migrate_Error(t *testing.T) {
	s, mock := newMockReports(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS buyer_group_reports`).
		WillReturnError(assert.AnError)

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate")
	assert.NoError(t, mock.ExpectationsWereMet())
}
