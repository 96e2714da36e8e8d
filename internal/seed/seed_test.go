package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divawifi/wifi/internal/database"
	"github.com/divawifi/wifi/internal/repository"
)

const fixture = `
accounts:
  - first: Jane
    last: Doe
    email: jane@grid.test
    level: 200
    title: Owner
    password: secret
  - first: John
    last: Roe
regions:
  - name: Welcome
    x: 1000
    y: 1000
    uri: http://sim.test:9000/
groups:
  - name: Builders
    charter: We build.
    open: true
    founder: Jane Doe
    members: [John Roe]
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(fixture))
	require.NoError(t, err)
	require.Len(t, f.Accounts, 2)
	assert.Equal(t, "Jane", f.Accounts[0].FirstName)
	assert.Equal(t, 200, f.Accounts[0].UserLevel)
	assert.Equal(t, "secret", f.Accounts[0].Password)
	assert.Equal(t, 1000, f.Regions[0].LocX)
	assert.True(t, f.Groups[0].OpenEnrollment)
	assert.Equal(t, []string{"John Roe"}, f.Groups[0].Members)

	_, err = Parse([]byte("other: 1\n"))
	assert.Error(t, err)
	_, err = Parse([]byte("accounts: [\n"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	svc := repository.New(database.NewTestDB(t))

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	f, err := Load(path)
	require.NoError(t, err)

	res, err := Apply(ctx, svc, f)
	require.NoError(t, err)
	assert.Len(t, res.Created, 4)
	assert.Empty(t, res.Skipped)

	jane, err := svc.Accounts.GetUserAccountByName(ctx, "jane", "doe")
	require.NoError(t, err)
	assert.Equal(t, "Owner", jane.UserTitle)
	_, err = svc.Auth.Authenticate(ctx, jane.PrincipalID, "secret", 0)
	assert.NoError(t, err)

	john, err := svc.Accounts.GetUserAccountByName(ctx, "John", "Roe")
	require.NoError(t, err)
	_, err = svc.Auth.Authenticate(ctx, john.PrincipalID, "password", 0)
	assert.NoError(t, err)

	region, err := svc.Grid.GetRegionByName(ctx, "Welcome")
	require.NoError(t, err)
	assert.Equal(t, 256000, region.LocX)

	group, err := svc.Groups.GetGroupByName(ctx, "Builders")
	require.NoError(t, err)
	assert.Equal(t, jane.PrincipalID, group.FounderID)
	members, err := svc.Groups.GetMembers(ctx, group.GroupID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	again, err := Apply(ctx, svc, f)
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Len(t, again.Skipped, 4)
}

func TestApplyUnknownMember(t *testing.T) {
	svc := repository.New(database.NewTestDB(t))
	f, err := Parse([]byte("groups:\n  - name: Ghosts\n    founder: No Body\n"))
	require.NoError(t, err)
	_, err = Apply(context.Background(), svc, f)
	assert.ErrorContains(t, err, "No Body")
}
