package world

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/unlimited-mining/internal/eventbus"
	"github.com/annel0/unlimited-mining/internal/host"
	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/annel0/unlimited-mining/internal/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTag   = "um:voxel"
	testBrick = "20x Micro-Brick Cube"
)

type fakeMiners struct {
	mu      sync.Mutex
	power   int
	credits map[string]map[*voxel.Type]int
}

func newFakeMiners(power int) *fakeMiners {
	return &fakeMiners{power: power, credits: make(map[string]map[*voxel.Type]int)}
}

func (f *fakeMiners) PickaxePower(context.Context, string) (int, error) {
	return f.power, nil
}

func (f *fakeMiners) CreditVoxel(_ context.Context, id string, t *voxel.Type) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.credits[id] == nil {
		f.credits[id] = make(map[*voxel.Type]int)
	}
	f.credits[id][t]++
	return f.credits[id][t], nil
}

func (f *fakeMiners) total(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.credits[id] {
		n += c
	}
	return n
}

type testMine struct {
	mine       *Mine
	world      *host.MemoryWorld
	presenter  *host.RecordingPresenter
	dispatcher *host.Dispatcher
	miners     *fakeMiners
}

func newTestMine(t *testing.T, width, length int, power int) *testMine {
	t.Helper()
	tm := &testMine{
		world:      host.NewMemoryWorld(),
		presenter:  host.NewRecordingPresenter(0),
		dispatcher: host.NewDispatcher(),
		miners:     newFakeMiners(power),
	}
	mine, err := NewMine(Config{
		Origin:    vec.New(153, -13, 341),
		Width:     width,
		Length:    length,
		CellSize:  vec.New(20, 20, 20),
		VoxelTag:  testTag,
		BrickName: testBrick,
		Entrance:  FixedSelector{Type: voxel.Dirt},
	}, Deps{
		World:        tm.world,
		Presenter:    tm.presenter,
		Interactions: tm.dispatcher,
		Miners:       tm.miners,
	})
	require.NoError(t, err)
	tm.mine = mine
	return tm
}

// assertConsistent проверяет, что ни одна скрытая грань не смотрит на занятую ячейку
func assertConsistent(t *testing.T, s *Store) {
	t.Helper()
	for _, p := range s.Positions() {
		v, _ := s.Get(p)
		for _, f := range v.Obscured.Faces() {
			assert.False(t, s.Has(f.Neighbor(p)), "воксель %s скрывает грань %s, но сосед существует", p, f)
		}
	}
}

func TestMappingRoundTrip(t *testing.T) {
	m, err := NewMapping(vec.New(153, -13, 341), vec.New(20, 20, 20))
	require.NoError(t, err)

	for x := -3; x <= 3; x++ {
		for y := -3; y <= 3; y++ {
			for z := -3; z <= 3; z++ {
				p := vec.New(x, y, z)
				back, ok := m.ToLocal(m.ToWorld(p))
				require.True(t, ok)
				assert.Equal(t, p, back)
			}
		}
	}

	_, ok := m.ToLocal(vec.New(160, -13, 341))
	assert.False(t, ok, "позиция вне узла решётки")
	assert.Equal(t, vec.New(10, 10, 10), m.BrickExtent())

	_, err = NewMapping(vec.Vec3{}, vec.New(20, 0, 20))
	assert.ErrorIs(t, err, ErrInvalidMapping)
}

func TestStoreCreateManyIsAtomic(t *testing.T) {
	ctx := context.Background()
	w := host.NewMemoryWorld()
	m, _ := NewMapping(vec.Vec3{}, vec.New(20, 20, 20))
	s := NewStore(w, m, StoreConfig{Tag: testTag})

	require.NoError(t, s.CreateMany(ctx, nil))
	assert.Equal(t, 0, w.Writes(), "пустой пакет не пишет в хост")

	dup := []Blueprint{
		{Position: vec.New(0, 0, 0), Type: voxel.Dirt},
		{Position: vec.New(0, 0, 0), Type: voxel.Stone},
	}
	assert.ErrorIs(t, s.CreateMany(ctx, dup), ErrDuplicatePosition)
	assert.Equal(t, 0, w.Writes())

	w.FailNextPlace(1)
	assert.ErrorIs(t, s.CreateMany(ctx, dup[:1]), host.ErrInjected)
	assert.Equal(t, 0, s.Len(), "решётка не меняется при ошибке хоста")

	require.NoError(t, s.CreateMany(ctx, []Blueprint{
		{Position: vec.New(0, 0, 0), Type: voxel.Iron},
		{Position: vec.New(1, 0, 0), Type: voxel.Dirt},
	}))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, w.Writes(), "пакет пишется одной записью")

	brick, owner, ok := w.BrickAt(vec.New(0, 0, 0))
	require.True(t, ok)
	assert.Equal(t, s.Owner(), owner)
	assert.Equal(t, voxel.MaterialMetallic, brick.Material)
	assert.Equal(t, testTag, brick.Tag)
	assert.Equal(t, vec.New(10, 10, 10), brick.Size)

	// Перезапись существующей позиции
	require.NoError(t, s.CreateMany(ctx, []Blueprint{{Position: vec.New(0, 0, 0), Type: voxel.Gold}}))
	v, _ := s.Get(vec.New(0, 0, 0))
	assert.Equal(t, voxel.Gold, v.Type)
	assert.Equal(t, voxel.Gold.HP, v.HP)
}

func TestStoreDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	w := host.NewMemoryWorld()
	m, _ := NewMapping(vec.Vec3{}, vec.New(20, 20, 20))
	s := NewStore(w, m, StoreConfig{})
	require.NoError(t, s.CreateMany(ctx, []Blueprint{
		{Position: vec.New(0, 0, 0), Type: voxel.Dirt},
		{Position: vec.New(0, 1, 0), Type: voxel.Dirt},
	}))

	require.NoError(t, s.Delete(ctx, vec.New(5, 5, 5)), "удаление отсутствующего - no-op")

	w.FailNextClear(1)
	assert.Error(t, s.Delete(ctx, vec.New(0, 0, 0)))
	assert.True(t, s.Has(vec.New(0, 0, 0)), "запись остаётся при ошибке хоста")

	require.NoError(t, s.Delete(ctx, vec.New(0, 0, 0)))
	assert.False(t, s.Has(vec.New(0, 0, 0)))
	_, _, ok := w.BrickAt(vec.New(0, 0, 0))
	assert.False(t, ok)

	require.NoError(t, s.ClearAll(ctx))
	require.NoError(t, s.ClearAll(ctx), "повторная очистка безопасна")
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, w.Count(s.Owner()))
}

func TestCreateEntrance2x2(t *testing.T) {
	tm := newTestMine(t, 2, 2, 1)
	require.NoError(t, tm.mine.Create(context.Background()))

	s := tm.mine.Store()
	require.Equal(t, 4, s.Len())
	assert.Equal(t, 1, tm.world.Writes(), "вход создаётся одним пакетом")

	expected := map[vec.Vec3]voxel.FaceSet{
		vec.New(0, 0, 0): voxel.NewFaceSet(voxel.NegZ, voxel.NegX, voxel.NegY),
		vec.New(1, 0, 0): voxel.NewFaceSet(voxel.NegZ, voxel.PosX, voxel.NegY),
		vec.New(0, 1, 0): voxel.NewFaceSet(voxel.NegZ, voxel.NegX, voxel.PosY),
		vec.New(1, 1, 0): voxel.NewFaceSet(voxel.NegZ, voxel.PosX, voxel.PosY),
	}
	for pos, faces := range expected {
		v, ok := s.Get(pos)
		require.True(t, ok, "нет вокселя в %s", pos)
		assert.Equal(t, faces, v.Obscured, "грани вокселя %s", pos)
		assert.False(t, v.Obscured.Has(voxel.PosZ))
	}
	assertConsistent(t, s)
}

func TestCreateEntranceSingleColumn(t *testing.T) {
	tm := newTestMine(t, 1, 1, 1)
	require.NoError(t, tm.mine.Create(context.Background()))

	v, ok := tm.mine.Store().Get(vec.New(0, 0, 0))
	require.True(t, ok)
	assert.Equal(t, voxel.NewFaceSet(voxel.NegZ, voxel.NegX, voxel.PosX, voxel.NegY, voxel.PosY), v.Obscured)
}

func TestMineLifecycleErrors(t *testing.T) {
	ctx := context.Background()
	tm := newTestMine(t, 2, 2, 1)

	assert.ErrorIs(t, tm.mine.Clear(ctx), ErrNotCreated)

	tm.world.FailNextPlace(1)
	assert.Error(t, tm.mine.Create(ctx))
	assert.False(t, tm.mine.IsCreated())
	assert.Equal(t, 0, tm.dispatcher.Subscribers(), "подписка снимается при неудаче")

	require.NoError(t, tm.mine.Create(ctx))
	assert.ErrorIs(t, tm.mine.Create(ctx), ErrAlreadyCreated)
	assert.Equal(t, 1, tm.dispatcher.Subscribers())

	require.NoError(t, tm.mine.Clear(ctx))
	assert.False(t, tm.mine.IsCreated())
	assert.Equal(t, 0, tm.mine.Store().Len())
	assert.Equal(t, 0, tm.dispatcher.Subscribers())
	assert.ErrorIs(t, tm.mine.Clear(ctx), ErrNotCreated)

	require.NoError(t, tm.mine.Create(ctx), "шахту можно создать заново")
}

func TestHitDamagesAndReveals(t *testing.T) {
	ctx := context.Background()
	tm := newTestMine(t, 2, 2, 1)
	require.NoError(t, tm.mine.Create(ctx))
	s := tm.mine.Store()

	origin := vec.New(0, 0, 0)
	before, _ := s.Get(origin)

	res, err := tm.mine.Hit(ctx, "p1", origin)
	require.NoError(t, err)
	assert.False(t, res.Mined)
	assert.Equal(t, voxel.Dirt.HP-1, res.Remaining)
	last, _ := tm.presenter.Last("p1")
	assert.Contains(t, last.Text, "DIRT")

	for i := 0; i < voxel.Dirt.HP-1; i++ {
		res, err = tm.mine.Hit(ctx, "p1", origin)
		require.NoError(t, err)
	}
	assert.True(t, res.Mined)
	last, _ = tm.presenter.Last("p1")
	assert.Contains(t, last.Text, "MINED")

	// Полнота раскрытия: за каждой скрытой гранью теперь есть воксель
	assert.False(t, s.Has(origin))
	for _, f := range before.Obscured.Faces() {
		assert.True(t, s.Has(f.Neighbor(origin)), "нет вокселя за гранью %s", f)
	}

	// Две границы над потолком у раскрытых вокселей вне входа
	for _, p := range []vec.Vec3{vec.New(-1, 0, 1), vec.New(0, -1, 1)} {
		v, ok := s.Get(p)
		require.True(t, ok, "нет границы в %s", p)
		assert.Equal(t, voxel.Border, v.Type)
		assert.True(t, v.Obscured.IsEmpty())
	}
	assert.Equal(t, 5, res.Revealed)
	assert.Equal(t, 8, s.Len())
	assert.Equal(t, 1, tm.miners.total("p1"))

	// Новый воксель на уровне потолка не скрывает грань вверх и грань назад
	side, _ := s.Get(vec.New(-1, 0, 0))
	assert.False(t, side.Obscured.Has(voxel.PosZ))
	assert.False(t, side.Obscured.Has(voxel.PosX))
	assertConsistent(t, s)
}

func TestRevealKeepsNeighborsConsistent(t *testing.T) {
	ctx := context.Background()
	tm := newTestMine(t, 3, 3, 100)
	require.NoError(t, tm.mine.Create(ctx))
	s := tm.mine.Store()

	// Копаем вниз и в стороны, проверяя согласованность после каждого шага
	path := []vec.Vec3{
		vec.New(1, 1, 0),
		vec.New(1, 1, -1),
		vec.New(0, 1, 0),
		vec.New(0, 1, -1),
		vec.New(1, 1, -2),
		vec.New(1, 0, -1),
		vec.New(2, 1, -1),
	}
	for _, p := range path {
		before, ok := s.Get(p)
		require.True(t, ok, "нет вокселя в %s", p)
		res, err := tm.mine.Hit(ctx, "p1", p)
		require.NoError(t, err)
		require.True(t, res.Mined)
		for _, f := range before.Obscured.Faces() {
			assert.True(t, s.Has(f.Neighbor(p)), "после %s нет вокселя за гранью %s", p, f)
		}
		assertConsistent(t, s)
	}

	// Грань вниз у (1,0,0) снята, когда под ним появился воксель
	v, _ := s.Get(vec.New(1, 0, 0))
	assert.False(t, v.Obscured.Has(voxel.NegZ))
	assert.Equal(t, len(path), tm.miners.total("p1"))
}

func TestHitMissingAndBorder(t *testing.T) {
	ctx := context.Background()
	tm := newTestMine(t, 1, 1, 10)
	require.NoError(t, tm.mine.Create(ctx))

	_, err := tm.mine.Hit(ctx, "p1", vec.New(7, 7, 7))
	assert.ErrorIs(t, err, ErrMissingVoxel)

	_, err = tm.mine.Hit(ctx, "p1", vec.New(0, 0, 0))
	require.NoError(t, err)
	_, err = tm.mine.Hit(ctx, "p1", vec.New(0, 0, 0))
	assert.ErrorIs(t, err, ErrMissingVoxel, "повторный удар по разрушенной ячейке")

	border := vec.New(-1, 0, 1)
	require.True(t, tm.mine.Store().Has(border))
	res, err := tm.mine.Hit(ctx, "p1", border)
	require.NoError(t, err)
	assert.True(t, res.Border)
	last, _ := tm.presenter.Last("p1")
	assert.Contains(t, last.Text, "CANNOT MINE")
	assert.True(t, tm.mine.Store().Has(border))
}

func TestHitHostFailureLeavesLattice(t *testing.T) {
	ctx := context.Background()
	tm := newTestMine(t, 2, 2, 10)
	require.NoError(t, tm.mine.Create(ctx))
	s := tm.mine.Store()
	neighbor, _ := s.Get(vec.New(1, 0, 0))

	tm.world.FailNextPlace(1)
	_, err := tm.mine.Hit(ctx, "p1", vec.New(0, 0, 0))
	require.ErrorIs(t, err, host.ErrInjected)
	assert.Equal(t, 4, s.Len())
	after, _ := s.Get(vec.New(1, 0, 0))
	assert.Equal(t, neighbor.Obscured, after.Obscured)
	assert.Equal(t, 0, tm.miners.total("p1"))

	// Повторный удар завершает раскрытие
	res, err := tm.mine.Hit(ctx, "p1", vec.New(0, 0, 0))
	require.NoError(t, err)
	assert.True(t, res.Mined)
	assert.Equal(t, 1, tm.miners.total("p1"))
	assertConsistent(t, s)
}

func TestHitDeleteFailureRetries(t *testing.T) {
	ctx := context.Background()
	tm := newTestMine(t, 2, 2, 10)
	require.NoError(t, tm.mine.Create(ctx))
	s := tm.mine.Store()

	tm.world.FailNextClear(1)
	_, err := tm.mine.Hit(ctx, "p1", vec.New(0, 0, 0))
	require.Error(t, err)
	assert.True(t, s.Has(vec.New(0, 0, 0)))
	assert.Equal(t, 0, tm.miners.total("p1"))

	writes := tm.world.Writes()
	res, err := tm.mine.Hit(ctx, "p1", vec.New(0, 0, 0))
	require.NoError(t, err)
	assert.True(t, res.Mined)
	assert.Equal(t, 0, res.Revealed, "соседи уже созданы")
	assert.Equal(t, writes, tm.world.Writes())
	assert.False(t, s.Has(vec.New(0, 0, 0)))
	assertConsistent(t, s)
}

func TestInteractionHandler(t *testing.T) {
	ctx := context.Background()
	tm := newTestMine(t, 2, 2, 1)
	require.NoError(t, tm.mine.Create(ctx))
	s := tm.mine.Store()
	target := vec.New(1, 1, 0)
	worldPos := s.ToWorld(target)

	tm.dispatcher.Interact(ctx, host.Interaction{PlayerID: "p1", Position: worldPos, BrickName: testBrick, Tag: "other"})
	tm.dispatcher.Interact(ctx, host.Interaction{PlayerID: "p1", Position: worldPos, BrickName: "other", Tag: testTag})
	tm.dispatcher.Interact(ctx, host.Interaction{PlayerID: "p1", Position: worldPos.Add(vec.New(3, 0, 0)), BrickName: testBrick, Tag: testTag})
	v, _ := s.Get(target)
	assert.Equal(t, voxel.Dirt.HP, v.HP, "чужие и невыровненные взаимодействия игнорируются")

	tm.dispatcher.Interact(ctx, host.Interaction{PlayerID: "p1", Position: worldPos, BrickName: testBrick, Tag: testTag})
	v, _ = s.Get(target)
	assert.Equal(t, voxel.Dirt.HP-1, v.HP)

	// Отсутствующая ячейка только логируется
	assert.NotPanics(t, func() {
		tm.dispatcher.Interact(ctx, host.Interaction{PlayerID: "p1", Position: s.ToWorld(vec.New(9, 9, 9)), BrickName: testBrick, Tag: testTag})
	})
}

func TestConcurrentHitsAreSerialised(t *testing.T) {
	ctx := context.Background()
	tm := newTestMine(t, 2, 2, 100)
	require.NoError(t, tm.mine.Create(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = tm.mine.Hit(ctx, "p1", vec.New(0, 0, 0))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, tm.miners.total("p1"), "воксель засчитывается один раз")
	assertConsistent(t, tm.mine.Store())
}

func TestStatus(t *testing.T) {
	tm := newTestMine(t, 2, 3, 1)
	st := tm.mine.Status()
	assert.False(t, st.Created)
	require.NoError(t, tm.mine.Create(context.Background()))
	st = tm.mine.Status()
	assert.True(t, st.Created)
	assert.Equal(t, 6, st.Voxels)
	assert.Equal(t, vec.New(153, -13, 341), st.Origin)
}

func TestMineEvents(t *testing.T) {
	ctx := context.Background()
	bus := eventbus.NewMemoryBus(16)
	defer bus.Close()

	var mu sync.Mutex
	var got []string
	var mined eventbus.VoxelMinedEvent
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Sources: []string{EventSource}}, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.EventType)
		if ev.EventType == eventbus.TypeVoxelMined {
			assert.NoError(t, ev.Decode(&mined))
		}
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	mine, err := NewMine(Config{
		Width:     1,
		Length:    1,
		CellSize:  vec.New(10, 10, 10),
		VoxelTag:  testTag,
		BrickName: testBrick,
		Entrance:  FixedSelector{Type: voxel.Dirt},
	}, Deps{
		World:        host.NewMemoryWorld(),
		Presenter:    host.NewRecordingPresenter(0),
		Interactions: host.NewDispatcher(),
		Miners:       newFakeMiners(voxel.Dirt.HP),
		Bus:          bus,
	})
	require.NoError(t, err)

	require.NoError(t, mine.Create(ctx))
	_, err = mine.Hit(ctx, "p1", vec.Vec3{})
	require.NoError(t, err)
	require.NoError(t, mine.Clear(ctx))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{eventbus.TypeMineCreated, eventbus.TypeVoxelMined, eventbus.TypeMineCleared}, got)
	assert.Equal(t, "p1", mined.PlayerID)
	assert.Equal(t, voxel.Dirt.DBName, mined.Type)
	assert.Equal(t, 1, mined.Amount)
	assert.GreaterOrEqual(t, mined.Revealed, 5, "1x1: вниз и четыре стороны")
}
