package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/repository"
	"github.com/qs3c/fable_go_server/internal/testutil"
)

func newRosterService(t *testing.T) (*RosterService, *gorm.DB, func()) {
	db := testutil.SetupTestDB(t)
	avatarService := NewAvatarService(repository.NewAvatarRepository(db), &fakeVision{}, &fakeImageGen{}, &fakeStore{})
	svc := NewRosterService(repository.NewRosterRepository(db), avatarService, repository.NewUserRepository(db))
	return svc, db, func() { testutil.CleanupTestDB(t, db) }
}

func TestRosterService_AssignAndGet(t *testing.T) {
	svc, db, cleanup := newRosterService(t)
	defer cleanup()

	school := testutil.TestUser(t, db, testutil.WithSchool("Escola Azul", 0))
	teacher := testutil.TestAvatar(t, db, school.ID)
	student := testutil.TestAvatar(t, db, school.ID)

	_, err := svc.Assign(school.ID, &dto.AssignSlotRequest{Slot: "prof_1", AvatarID: teacher.ID})
	require.NoError(t, err)

	view, err := svc.Assign(school.ID, &dto.AssignSlotRequest{Slot: "aluno_01", AvatarID: student.ID})
	require.NoError(t, err)
	require.Len(t, view.Members, 2)
	// 槽位字典序：aluno 在前
	assert.Equal(t, "aluno_01", view.Members[0].Slot)
	assert.Equal(t, model.RosterRoleStudent, view.Members[0].Role)
	assert.Equal(t, "prof_1", view.Members[1].Slot)
	assert.Equal(t, model.RosterRoleTeacher, view.Members[1].Role)
}

func TestRosterService_Assign_InvalidSlot(t *testing.T) {
	svc, db, cleanup := newRosterService(t)
	defer cleanup()

	school := testutil.TestUser(t, db, testutil.WithSchool("Escola Azul", 0))
	avatar := testutil.TestAvatar(t, db, school.ID)

	for _, slot := range []string{"prof_6", "aluno_31", "aluno_1", "diretor_1", ""} {
		_, err := svc.Assign(school.ID, &dto.AssignSlotRequest{Slot: slot, AvatarID: avatar.ID})
		assert.ErrorIs(t, err, ErrInvalidSlot, "slot %q", slot)
	}
}

func TestRosterService_Assign_Overwrite(t *testing.T) {
	svc, db, cleanup := newRosterService(t)
	defer cleanup()

	school := testutil.TestUser(t, db, testutil.WithSchool("Escola Azul", 0))
	first := testutil.TestAvatar(t, db, school.ID)
	second := testutil.TestAvatar(t, db, school.ID)

	_, err := svc.Assign(school.ID, &dto.AssignSlotRequest{Slot: "prof_1", AvatarID: first.ID})
	require.NoError(t, err)

	view, err := svc.Assign(school.ID, &dto.AssignSlotRequest{Slot: "prof_1", AvatarID: second.ID})
	require.NoError(t, err)
	require.Len(t, view.Members, 1)
	assert.Equal(t, second.ID, view.Members[0].AvatarID)
}

func TestRosterService_SchoolOnly(t *testing.T) {
	svc, db, cleanup := newRosterService(t)
	defer cleanup()

	regular := testutil.TestUser(t, db)
	avatar := testutil.TestAvatar(t, db, regular.ID)

	_, err := svc.Get(regular.ID)
	assert.ErrorIs(t, err, ErrNotSchoolUser)

	_, err = svc.Assign(regular.ID, &dto.AssignSlotRequest{Slot: "prof_1", AvatarID: avatar.ID})
	assert.ErrorIs(t, err, ErrNotSchoolUser)
}
