package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-insights/internal/domain"
	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

const validCSV = `ticket_id,user,issue,category,timestamp
a1,Ann Lee,Cannot reset my password,Login Issue,2024-01-05 10:11:12
a2,Bob Ray,"Charged twice, refund please",Payment Failed,2024-02-01 08:00:00.123456
a3,Cy Dee,App freezes on start,App Crash,2024-02-28T23:59:59Z
`

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(validCSV))
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	a2, ok := table.Get("a2")
	require.True(t, ok)
	assert.Equal(t, "Bob Ray", a2.Submitter)
	assert.Equal(t, "Charged twice, refund please", a2.IssueText)
	assert.Equal(t, domain.CategoryPaymentFailed, a2.Category)
	assert.Equal(t, domain.Period{Year: 2024, Month: time.February}, a2.Period())
	assert.Nil(t, a2.Tag)
}

func TestReadCSVWithTagColumn(t *testing.T) {
	src := "ticket_id,user,issue,category,timestamp,gpt_tag\n" +
		"a1,Ann,x,Login Issue,2024-01-05 10:11:12,login\n" +
		"a2,Bob,y,Slow App,2024-01-06 10:11:12,\n"

	table, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)

	a1, _ := table.Get("a1")
	require.NotNil(t, a1.Tag)
	assert.Equal(t, domain.Tag("login"), *a1.Tag)
	a2, _ := table.Get("a2")
	assert.Nil(t, a2.Tag)
}

func TestReadCSVMissingCategoryColumn(t *testing.T) {
	src := "ticket_id,user,issue,timestamp\na1,Ann,x,2024-01-05 10:11:12\n"

	_, err := ReadCSV(strings.NewReader(src))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSchema)
}

func TestReadCSVEmptyInputIsSchemaError(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, apperrors.ErrSchema)
}

func TestReadCSVHeaderOnly(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("ticket_id,user,issue,category,timestamp\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestReadCSVRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"bad timestamp":    "a1,Ann,x,Login Issue,yesterday\n",
		"empty timestamp":  "a1,Ann,x,Login Issue,\n",
		"unknown category": "a1,Ann,x,Weather,2024-01-05 10:11:12\n",
		"short row":        "a1,Ann,x\n",
		"empty id":         ",Ann,x,Login Issue,2024-01-05 10:11:12\n",
		"duplicate id":     "a1,Ann,x,Login Issue,2024-01-05 10:11:12\na1,Bob,y,Login Issue,2024-01-06 10:11:12\n",
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader("ticket_id,user,issue,category,timestamp\n" + rows))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrParse)
		})
	}
}

func TestParseErrorCarriesRow(t *testing.T) {
	src := "ticket_id,user,issue,category,timestamp\n" +
		"a1,Ann,x,Login Issue,2024-01-05 10:11:12\n" +
		"a2,Bob,y,Login Issue,not-a-date\n"

	_, err := ReadCSV(strings.NewReader(src))
	var derr *apperrors.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, 2, derr.Details["row"])
	assert.Equal(t, ColumnTimestamp, derr.Details["field"])
}

func TestHeaderMatchingIgnoresCaseAndOrder(t *testing.T) {
	src := "Timestamp, Category ,ISSUE,User,Ticket_ID\n2024-03-01 00:00:00,Bug Report,boom,Ann,z9\n"

	table, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)
	z9, ok := table.Get("z9")
	require.True(t, ok)
	assert.Equal(t, domain.CategoryBugReport, z9.Category)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.csv")
	require.NoError(t, os.WriteFile(path, []byte(validCSV), 0o644))

	table, err := Load(context.Background(), FileSource{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	_, err = Load(context.Background(), FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(validCSV))
	require.NoError(t, err)
	table, err = table.AssignTag("a1", "login")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	again, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, table.Len(), again.Len())
	a1, _ := again.Get("a1")
	require.NotNil(t, a1.Tag)
	assert.Equal(t, domain.Tag("login"), *a1.Tag)
	a3, _ := again.Get("a3")
	assert.Equal(t, domain.Period{Year: 2024, Month: time.February}, a3.Period())
}

func TestWriteCSVKeepsZoneOffset(t *testing.T) {
	const offsetCSV = `ticket_id,user,issue,category,timestamp
z1,Zed,Late night outage,App Crash,2024-03-01T00:30:00+02:00
`
	table, err := ReadCSV(strings.NewReader(offsetCSV))
	require.NoError(t, err)
	before, _ := table.Get("z1")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	assert.Contains(t, buf.String(), "2024-03-01T00:30:00+02:00")

	again, err := ReadCSV(&buf)
	require.NoError(t, err)
	after, _ := again.Get("z1")
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.Equal(t, before.Period(), after.Period())
}
