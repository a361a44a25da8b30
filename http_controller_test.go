package machines_test

import (
	"testing"

	machines "github.com/goliatone/go-machines"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachineController(repo machines.RepositoryManager) *machines.MachineController {
	return machines.NewMachineController(
		machines.WithMachineRepository(repo),
	)
}

func authedContext(user *machines.User) *fakeContext {
	ctx := newFakeContext()
	ctx.locals["current_user"] = user
	return ctx
}

func testUser() *machines.User {
	return &machines.User{
		ID:       uuid.New(),
		Username: "ada",
		Email:    "ada@example.com",
	}
}

func TestMachineCreate(t *testing.T) {
	repo := newStubRepoManager()
	controller := newMachineController(repo)
	owner := testUser()

	ctx := authedContext(owner)
	ctx.payload = map[string]string{
		"type":       "lathe",
		"definition": "metal lathe, 3hp",
		"brand":      "Haas",
	}

	err := controller.Create(ctx)
	require.NoError(t, err)

	assert.Equal(t, router.StatusCreated, ctx.statusCode)
	assert.Equal(t, true, ctx.body()["success"])

	require.NotNil(t, repo.machines.registered)
	assert.Equal(t, owner.ID, repo.machines.registered.OwnerID)
	assert.Equal(t, "lathe", repo.machines.registered.Type)
}

func TestMachineCreateMissingFields(t *testing.T) {
	repo := newStubRepoManager()
	controller := newMachineController(repo)

	tests := []struct {
		name    string
		payload map[string]string
	}{
		{"missing type", map[string]string{"definition": "d", "brand": "b"}},
		{"missing definition", map[string]string{"type": "t", "brand": "b"}},
		{"missing brand", map[string]string{"type": "t", "definition": "d"}},
		{"empty body", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := authedContext(testUser())
			ctx.payload = tt.payload

			err := controller.Create(ctx)
			require.NoError(t, err)

			assert.Equal(t, router.StatusBadRequest, ctx.statusCode)
			assert.Equal(t, false, ctx.body()["success"])
			assert.Equal(t, "Please provide type, definition, and brand", ctx.body()["message"])
			assert.Nil(t, repo.machines.registered)
		})
	}
}

func TestMachineCreateWithoutCaller(t *testing.T) {
	repo := newStubRepoManager()
	controller := newMachineController(repo)

	ctx := newFakeContext()
	ctx.payload = map[string]string{"type": "t", "definition": "d", "brand": "b"}

	err := controller.Create(ctx)
	require.NoError(t, err)

	assert.Equal(t, router.StatusUnauthorized, ctx.statusCode)
	assert.Equal(t, false, ctx.body()["success"])
}

func TestMachineListMineScopesToOwner(t *testing.T) {
	repo := newStubRepoManager()
	controller := newMachineController(repo)
	owner := testUser()
	other := testUser()

	repo.machines.listing = []*machines.Machine{
		{ID: uuid.New(), Type: "lathe", OwnerID: owner.ID},
		{ID: uuid.New(), Type: "press", OwnerID: other.ID},
		{ID: uuid.New(), Type: "mill", OwnerID: owner.ID},
	}

	ctx := authedContext(owner)
	err := controller.ListMine(ctx)
	require.NoError(t, err)

	assert.Equal(t, router.StatusOK, ctx.statusCode)
	assert.Equal(t, true, ctx.body()["success"])

	records, ok := ctx.body()["machines"].([]*machines.Machine)
	require.True(t, ok)
	assert.Len(t, records, 2)
	for _, m := range records {
		assert.Equal(t, owner.ID, m.OwnerID)
	}
}

func TestMachineListAllIsUnscoped(t *testing.T) {
	repo := newStubRepoManager()
	controller := newMachineController(repo)

	repo.machines.listing = []*machines.Machine{
		{ID: uuid.New(), OwnerID: uuid.New()},
		{ID: uuid.New(), OwnerID: uuid.New()},
	}

	// No caller in locals on purpose, the route is public.
	ctx := newFakeContext()
	err := controller.ListAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, router.StatusOK, ctx.statusCode)
	records, ok := ctx.body()["machines"].([]*machines.Machine)
	require.True(t, ok)
	assert.Len(t, records, 2)
}

func TestMachineSearch(t *testing.T) {
	repo := newStubRepoManager()
	controller := newMachineController(repo)
	owner := testUser()

	repo.machines.listing = []*machines.Machine{
		{ID: uuid.New(), Type: "lathe", OwnerID: owner.ID},
		{ID: uuid.New(), Type: "mill", OwnerID: owner.ID},
		{ID: uuid.New(), Type: "lathe", OwnerID: uuid.New()},
	}

	t.Run("filters by type within the owner scope", func(t *testing.T) {
		ctx := authedContext(owner)
		ctx.queries["type"] = "lathe"

		err := controller.Search(ctx)
		require.NoError(t, err)

		assert.Equal(t, "lathe", repo.machines.searchedType)
		records, ok := ctx.body()["machines"].([]*machines.Machine)
		require.True(t, ok)
		require.Len(t, records, 1)
		assert.Equal(t, owner.ID, records[0].OwnerID)
	})

	t.Run("no type returns every owned machine", func(t *testing.T) {
		ctx := authedContext(owner)

		err := controller.Search(ctx)
		require.NoError(t, err)

		records, ok := ctx.body()["machines"].([]*machines.Machine)
		require.True(t, ok)
		assert.Len(t, records, 2)
	})
}

func TestMachineShow(t *testing.T) {
	repo := newStubRepoManager()
	controller := newMachineController(repo)
	owner := testUser()

	record := &machines.Machine{ID: uuid.New(), Type: "lathe", OwnerID: uuid.New()}
	repo.machines.byID[record.ID.String()] = record

	t.Run("returns the machine regardless of owner", func(t *testing.T) {
		ctx := authedContext(owner)
		ctx.params["id"] = record.ID.String()

		err := controller.Show(ctx)
		require.NoError(t, err)

		assert.Equal(t, router.StatusOK, ctx.statusCode)
		assert.Equal(t, record, ctx.body()["machine"])
	})

	t.Run("unknown id answers 404", func(t *testing.T) {
		ctx := authedContext(owner)
		ctx.params["id"] = uuid.New().String()

		err := controller.Show(ctx)
		require.NoError(t, err)

		assert.Equal(t, router.StatusNotFound, ctx.statusCode)
		assert.Equal(t, "Machine not found", ctx.body()["message"])
	})

	t.Run("non uuid id answers 404", func(t *testing.T) {
		ctx := authedContext(owner)
		ctx.params["id"] = "not-a-uuid"

		err := controller.Show(ctx)
		require.NoError(t, err)

		assert.Equal(t, router.StatusNotFound, ctx.statusCode)
	})
}

func TestMachineUpdate(t *testing.T) {
	payload := map[string]string{
		"type":       "mill",
		"definition": "cnc mill",
		"brand":      "Tormach",
	}

	t.Run("owner can update", func(t *testing.T) {
		repo := newStubRepoManager()
		controller := newMachineController(repo)
		owner := testUser()

		record := &machines.Machine{ID: uuid.New(), Type: "lathe", OwnerID: owner.ID}
		repo.machines.byID[record.ID.String()] = record

		ctx := authedContext(owner)
		ctx.params["id"] = record.ID.String()
		ctx.payload = payload

		err := controller.Update(ctx)
		require.NoError(t, err)

		assert.Equal(t, router.StatusOK, ctx.statusCode)
		require.NotNil(t, repo.machines.updated)
		assert.Equal(t, "mill", repo.machines.updated.Type)
		assert.Equal(t, "cnc mill", repo.machines.updated.Definition)
		assert.Equal(t, owner.ID, repo.machines.updated.OwnerID)
	})

	t.Run("non owner gets 403", func(t *testing.T) {
		repo := newStubRepoManager()
		controller := newMachineController(repo)

		record := &machines.Machine{ID: uuid.New(), Type: "lathe", OwnerID: uuid.New()}
		repo.machines.byID[record.ID.String()] = record

		ctx := authedContext(testUser())
		ctx.params["id"] = record.ID.String()
		ctx.payload = payload

		err := controller.Update(ctx)
		require.NoError(t, err)

		assert.Equal(t, router.StatusForbidden, ctx.statusCode)
		assert.Equal(t, "You are not authorized to update this machine", ctx.body()["message"])
		assert.Nil(t, repo.machines.updated)
	})

	t.Run("missing machine gets 404", func(t *testing.T) {
		repo := newStubRepoManager()
		controller := newMachineController(repo)

		ctx := authedContext(testUser())
		ctx.params["id"] = uuid.New().String()
		ctx.payload = payload

		err := controller.Update(ctx)
		require.NoError(t, err)

		assert.Equal(t, router.StatusNotFound, ctx.statusCode)
	})

	t.Run("incomplete payload gets 400", func(t *testing.T) {
		repo := newStubRepoManager()
		controller := newMachineController(repo)
		owner := testUser()

		record := &machines.Machine{ID: uuid.New(), Type: "lathe", OwnerID: owner.ID}
		repo.machines.byID[record.ID.String()] = record

		ctx := authedContext(owner)
		ctx.params["id"] = record.ID.String()
		ctx.payload = map[string]string{"type": "mill"}

		err := controller.Update(ctx)
		require.NoError(t, err)

		assert.Equal(t, router.StatusBadRequest, ctx.statusCode)
		assert.Nil(t, repo.machines.updated)
	})
}

func TestMachineDelete(t *testing.T) {
	t.Run("any authenticated caller can delete", func(t *testing.T) {
		repo := newStubRepoManager()
		controller := newMachineController(repo)

		id := uuid.New()
		ctx := authedContext(testUser())
		ctx.params["id"] = id.String()

		err := controller.Delete(ctx)
		require.NoError(t, err)

		assert.Equal(t, router.StatusOK, ctx.statusCode)
		assert.Equal(t, true, ctx.body()["success"])
		assert.Equal(t, "Machine deleted successfully", ctx.body()["message"])
		assert.Equal(t, id, repo.machines.deletedID)
	})

	t.Run("missing machine gets 404", func(t *testing.T) {
		repo := newStubRepoManager()
		repo.machines.deleteErr = machines.ErrMachineNotFound
		controller := newMachineController(repo)

		ctx := authedContext(testUser())
		ctx.params["id"] = uuid.New().String()

		err := controller.Delete(ctx)
		require.NoError(t, err)

		assert.Equal(t, router.StatusNotFound, ctx.statusCode)
		assert.Equal(t, "Machine not found", ctx.body()["message"])
	})

	t.Run("repository record not found also gets 404", func(t *testing.T) {
		repo := newStubRepoManager()
		repo.machines.deleteErr = repository.NewRecordNotFound()
		controller := newMachineController(repo)

		ctx := authedContext(testUser())
		ctx.params["id"] = uuid.New().String()

		err := controller.Delete(ctx)
		require.NoError(t, err)

		assert.Equal(t, router.StatusNotFound, ctx.statusCode)
		assert.Equal(t, "Machine not found", ctx.body()["message"])
	})
}
