package store

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestSaveTenantStateUpserts(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO wa_tenants").
		WithArgs("acme", "ONLINE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.SaveTenantState(context.Background(), "acme", "ONLINE")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveTenant(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM wa_tenants").
		WithArgs("acme").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.RemoveTenant(context.Background(), "acme")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTenants(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT tenant_id, state, COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "state", "paired_jid"}).
			AddRow("acme", "ONLINE", "123456789:1@s.whatsapp.net").
			AddRow("globex", "OFFLINE", ""))

	records, err := s.ListTenants(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "acme", records[0].TenantID)
	assert.Equal(t, "ONLINE", records[0].State)
	assert.Equal(t, "123456789:1@s.whatsapp.net", records[0].PairedJID)
	assert.Equal(t, "globex", records[1].TenantID)
	assert.Empty(t, records[1].PairedJID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPairedJIDUnknownTenant(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT paired_jid FROM wa_tenants").
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows([]string{"paired_jid"}))

	jid, err := s.PairedJID(context.Background(), "unknown")
	assert.NoError(t, err, "an unknown tenant is simply unpaired")
	assert.Empty(t, jid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPairedJIDRoundTrip(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO wa_tenants").
		WithArgs("acme", "123456789:1@s.whatsapp.net").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT paired_jid FROM wa_tenants").
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"paired_jid"}).AddRow("123456789:1@s.whatsapp.net"))
	mock.ExpectExec("UPDATE wa_tenants SET paired_jid = NULL").
		WithArgs("acme").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, s.SavePairedJID(ctx, "acme", "123456789:1@s.whatsapp.net"))

	jid, err := s.PairedJID(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "123456789:1@s.whatsapp.net", jid)

	require.NoError(t, s.ClearPairedJID(ctx, "acme"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
