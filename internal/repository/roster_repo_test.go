package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/testutil"
)

func TestRosterRepository_GetByUserID_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRosterRepository(db)
	user := testutil.TestUser(t, db, testutil.WithSchool("Escola Azul", 0))

	roster, err := repo.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.NotNil(t, roster.Members)
	assert.Empty(t, roster.Members)
}

func TestRosterRepository_SaveAndReload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRosterRepository(db)
	user := testutil.TestUser(t, db, testutil.WithSchool("Escola Azul", 0))
	avatar := testutil.TestAvatar(t, db, user.ID)

	roster, err := repo.GetByUserID(user.ID)
	require.NoError(t, err)
	roster.Members["prof_1"] = model.RosterMember{
		Slot:     "prof_1",
		AvatarID: avatar.ID,
		Role:     model.RosterRoleTeacher,
	}
	require.NoError(t, repo.Save(roster))

	found, err := repo.GetByUserID(user.ID)
	require.NoError(t, err)
	require.Contains(t, found.Members, "prof_1")
	assert.Equal(t, avatar.ID, found.Members["prof_1"].AvatarID)
}

func TestRosterRepository_Save_OverwritesSlot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRosterRepository(db)
	user := testutil.TestUser(t, db, testutil.WithSchool("Escola Azul", 0))
	first := testutil.TestAvatar(t, db, user.ID)
	second := testutil.TestAvatar(t, db, user.ID)

	roster, err := repo.GetByUserID(user.ID)
	require.NoError(t, err)
	roster.Members["aluno_01"] = model.RosterMember{Slot: "aluno_01", AvatarID: first.ID, Role: model.RosterRoleStudent}
	require.NoError(t, repo.Save(roster))

	// 同一槽位再次分配直接覆盖
	roster, err = repo.GetByUserID(user.ID)
	require.NoError(t, err)
	roster.Members["aluno_01"] = model.RosterMember{Slot: "aluno_01", AvatarID: second.ID, Role: model.RosterRoleStudent}
	require.NoError(t, repo.Save(roster))

	found, err := repo.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Len(t, found.Members, 1)
	assert.Equal(t, second.ID, found.Members["aluno_01"].AvatarID)
}
