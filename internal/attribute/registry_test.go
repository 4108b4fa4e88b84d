package attribute

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory StateStore.
type memStore struct {
	mu      sync.Mutex
	values  map[string]string
	saves   int
	saveErr error
	loadErr error
}

func (s *memStore) Save(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.values = maps.Clone(values)
	s.saves++
	return nil
}

func (s *memStore) Load() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return maps.Clone(s.values), nil
}

func TestRegister_Defaults(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Declaration{Name: "note"}))

	d, ok := reg.Descriptor("note")
	require.True(t, ok)
	assert.Equal(t, TypeString, d.Type)
	assert.Equal(t, ReadWrite, d.Access)
	assert.Nil(t, d.Bounds)
	assert.True(t, d.Alarms.IsZero())

	raw, ok := reg.RawValue("note")
	require.True(t, ok)
	assert.Equal(t, "", raw)
}

func TestRegister_ResolvesTypesAndAccessModes(t *testing.T) {
	tests := []struct {
		dataType  string
		writeType string
		wantType  DataType
		wantMode  AccessMode
	}{
		{DevBoolean, WriteTypeRead, TypeBoolean, ReadOnly},
		{DevLong, WriteTypeWrite, TypeInteger, WriteOnly},
		{DevDouble, WriteTypeReadWrite, TypeDouble, ReadWrite},
		{DevFloat, WriteTypeReadWithWrite, TypeDouble, ReadWithWrite},
		{DevString, "", TypeString, ReadWrite},
		{"", "", TypeString, ReadWrite},
	}

	for _, tt := range tests {
		t.Run(tt.dataType+"/"+tt.writeType, func(t *testing.T) {
			reg := NewRegistry(nil)
			require.NoError(t, reg.Register(Declaration{Name: "a", DataType: tt.dataType, WriteType: tt.writeType}))

			d, _ := reg.Descriptor("a")
			assert.Equal(t, tt.wantType, d.Type)
			assert.Equal(t, tt.wantMode, d.Access)
		})
	}
}

func TestRegister_Bounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max string
		want     *Bounds
	}{
		{"both distinct", "0", "100", &Bounds{Min: "0", Max: "100"}},
		{"equal", "5", "5", nil},
		{"min only", "0", "", nil},
		{"max only", "", "100", nil},
		{"neither", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry(nil)
			require.NoError(t, reg.Register(Declaration{Name: "level", DataType: DevDouble, MinValue: tt.min, MaxValue: tt.max}))

			d, _ := reg.Descriptor("level")
			assert.Equal(t, tt.want, d.Bounds)
		})
	}
}

func TestRegister_Metadata(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Declaration{
		Name:       "pressure",
		DataType:   DevDouble,
		Unit:       "bar",
		Label:      "Line pressure",
		Modifier:   "gauge",
		MinAlarm:   "0.5",
		MaxWarning: "8",
	}))

	d, _ := reg.Descriptor("pressure")
	assert.Equal(t, "bar", d.Unit)
	assert.Equal(t, "Line pressure", d.Label)
	assert.Equal(t, "gauge", d.Modifier)
	assert.Equal(t, Alarms{MinAlarm: "0.5", MaxWarning: "8"}, d.Alarms)
}

func TestRegister_EmptyNameIgnored(t *testing.T) {
	reg := NewRegistry(nil)
	assert.NoError(t, reg.Register(Declaration{Name: "", DataType: "DevWeird"}))
	assert.Equal(t, 0, reg.Len())
}

func TestRegister_UnsupportedType(t *testing.T) {
	reg := NewRegistry(nil)
	err := reg.Register(Declaration{Name: "x", DataType: "DevWeird"})

	require.Error(t, err)
	assert.True(t, IsUnsupportedTypeError(err))
	assert.Contains(t, err.Error(), "DevWeird")
	_, ok := reg.Descriptor("x")
	assert.False(t, ok)
}

func TestRegister_DataTypeNamesAreExact(t *testing.T) {
	reg := NewRegistry(nil)
	assert.True(t, IsUnsupportedTypeError(reg.Register(Declaration{Name: "x", DataType: "devboolean"})))
	assert.True(t, IsUnsupportedTypeError(reg.Register(Declaration{Name: "y", DataType: "Boolean"})))
}

func TestRegister_UnsupportedAccessMode(t *testing.T) {
	reg := NewRegistry(nil)
	err := reg.Register(Declaration{Name: "x", WriteType: "SOMETIMES"})

	require.Error(t, err)
	assert.True(t, IsUnsupportedAccessModeError(err))
	assert.False(t, IsUnsupportedTypeError(err))
	assert.Equal(t, 0, reg.Len())
}

func TestRegisterAll_ContinuesPastFailures(t *testing.T) {
	reg := NewRegistry(nil)
	decls := ParseDeclarations(`[
		{"name": "ok1", "data_type": "DevLong"},
		{"name": "bad", "data_type": "DevWeird"},
		{"name": "bad_mode", "write_type": "NOPE"},
		{"name": "ok2"}
	]`)

	err := reg.RegisterAll(decls)
	require.Error(t, err)
	assert.True(t, IsUnsupportedTypeError(err))
	assert.True(t, IsUnsupportedAccessModeError(err))

	assert.Equal(t, []string{"ok1", "ok2"}, reg.Names())
}

func TestRegister_IdempotentKeepsValue(t *testing.T) {
	reg := NewRegistry(nil)
	decl := Declaration{Name: "count", DataType: DevLong}

	require.NoError(t, reg.Register(decl))
	require.NoError(t, reg.Write("count", "5"))
	require.NoError(t, reg.Register(decl))

	raw, _ := reg.RawValue("count")
	assert.Equal(t, "5", raw)
	assert.Equal(t, 1, reg.Len())
}

func TestRegister_ReplacesTypeKeepsValue(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Declaration{Name: "x", DataType: DevString}))
	require.NoError(t, reg.Write("x", "7.8"))

	require.NoError(t, reg.Register(Declaration{Name: "x", DataType: DevLong, WriteType: WriteTypeRead}))

	d, _ := reg.Descriptor("x")
	assert.Equal(t, TypeInteger, d.Type)
	assert.Equal(t, ReadOnly, d.Access)

	v, err := reg.Read("x")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int())
	assert.Equal(t, []string{"x"}, reg.Names())
}

func TestRegister_DuplicateDeclarationsLastWins(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.RegisterAll(ParseDeclarations(`[{"name":"a","data_type":"DevLong"},{"name":"b"},{"name":"a","data_type":"DevBoolean"}]`)))

	d, _ := reg.Descriptor("a")
	assert.Equal(t, TypeBoolean, d.Type)
	assert.Equal(t, []string{"a", "b"}, reg.Names())
}

func TestWriteRead_RoundTrip(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.RegisterAll([]Declaration{
		{Name: "flag", DataType: DevBoolean},
		{Name: "count", DataType: DevLong},
		{Name: "level", DataType: DevDouble},
		{Name: "ratio", DataType: DevFloat},
		{Name: "note", DataType: DevString},
	}))

	require.NoError(t, reg.Write("flag", "true"))
	require.NoError(t, reg.Write("count", "7.8"))
	require.NoError(t, reg.Write("level", "3.14"))
	require.NoError(t, reg.Write("ratio", "0.25"))
	require.NoError(t, reg.Write("note", "  keep spacing "))

	v, err := reg.Read("flag")
	require.NoError(t, err)
	assert.True(t, v.Bool())

	v, err = reg.Read("count")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int())

	v, err = reg.Read("level")
	require.NoError(t, err)
	assert.InDelta(t, 3.14, v.Float(), 1e-12)

	v, err = reg.Read("ratio")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v.Float(), 1e-12)

	v, err = reg.Read("note")
	require.NoError(t, err)
	assert.Equal(t, "  keep spacing ", v.Text())
}

func TestRead_BooleanPrecedence(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Declaration{Name: "flag", DataType: DevBoolean}))

	require.NoError(t, reg.Write("flag", "FALSE"))
	v, err := reg.Read("flag")
	require.NoError(t, err)
	assert.False(t, v.Bool())

	require.NoError(t, reg.Write("flag", "2"))
	v, err = reg.Read("flag")
	require.NoError(t, err)
	assert.True(t, v.Bool())
}

func TestRead_CoercionError(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Declaration{Name: "count", DataType: DevLong}))
	require.NoError(t, reg.Write("count", "seven"))

	_, err := reg.Read("count")
	require.Error(t, err)
	assert.True(t, IsCoercionError(err))

	var attrErr *Error
	require.True(t, errors.As(err, &attrErr))
	assert.Equal(t, "count", attrErr.Attribute)
	assert.Contains(t, err.Error(), "seven")
}

func TestRead_EmptyValueOfNumericTypeFails(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Declaration{Name: "count", DataType: DevLong}))

	_, err := reg.Read("count")
	assert.True(t, IsCoercionError(err))
}

func TestReadWrite_NotFound(t *testing.T) {
	store := &memStore{}
	reg := NewRegistry(store)

	_, err := reg.Read("missing")
	assert.True(t, IsNotFoundError(err))

	err = reg.Write("missing", "1")
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, 0, store.saves)
}

func TestWrite_StoresVerbatimWithoutBoundsCheck(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Declaration{Name: "level", DataType: DevDouble, MinValue: "0", MaxValue: "10"}))

	require.NoError(t, reg.Write("level", "250"))
	v, err := reg.Read("level")
	require.NoError(t, err)
	assert.Equal(t, 250.0, v.Float())

	// Type is only checked on read.
	require.NoError(t, reg.Write("level", "not a number"))
	raw, _ := reg.RawValue("level")
	assert.Equal(t, "not a number", raw)
}

func TestWrite_SavesEveryTime(t *testing.T) {
	store := &memStore{}
	reg := NewRegistry(store)
	require.NoError(t, reg.RegisterAll([]Declaration{{Name: "a"}, {Name: "b"}}))

	require.NoError(t, reg.Write("a", "1"))
	require.NoError(t, reg.Write("b", "2"))
	require.NoError(t, reg.Write("a", "3"))

	assert.Equal(t, 3, store.saves)
	assert.Equal(t, map[string]string{"a": "3", "b": "2"}, store.values)
}

func TestWrite_SaveFailurePropagates(t *testing.T) {
	cause := errors.New("disk full")
	store := &memStore{saveErr: cause}
	reg := NewRegistry(store)
	require.NoError(t, reg.Register(Declaration{Name: "a"}))

	err := reg.Write("a", "1")
	require.Error(t, err)
	assert.True(t, IsPersistenceSaveError(err))
	assert.ErrorIs(t, err, cause)

	// The value is kept in memory.
	raw, _ := reg.RawValue("a")
	assert.Equal(t, "1", raw)
}

func TestPersistence_RoundTrip(t *testing.T) {
	store := &memStore{}
	decl := Declaration{Name: "x", DataType: DevLong}

	reg := NewRegistry(store)
	require.NoError(t, reg.Register(decl))
	require.NoError(t, reg.Write("x", "5"))
	require.NoError(t, reg.SaveState())

	fresh := NewRegistry(store)
	require.NoError(t, fresh.Register(decl))
	assert.True(t, fresh.LoadState())

	v, err := fresh.Read("x")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int())
}

func TestLoadState_NoPriorState(t *testing.T) {
	reg := NewRegistry(&memStore{})
	require.NoError(t, reg.Register(Declaration{Name: "x"}))

	assert.False(t, reg.LoadState())
	raw, _ := reg.RawValue("x")
	assert.Equal(t, "", raw)
}

func TestLoadState_NilStore(t *testing.T) {
	reg := NewRegistry(nil)
	assert.False(t, reg.LoadState())
	assert.NoError(t, reg.SaveState())
}

func TestLoadState_UnreadableStateIsIgnored(t *testing.T) {
	store := &memStore{loadErr: fmt.Errorf("failed to parse state file: unexpected end of JSON input")}
	reg := NewRegistry(store)
	require.NoError(t, reg.RegisterAll([]Declaration{{Name: "a"}, {Name: "b", DataType: DevLong}}))

	assert.False(t, reg.LoadState())
	assert.Equal(t, map[string]string{"a": "", "b": ""}, reg.Values())
}

func TestRestore_ReportsUnreadableState(t *testing.T) {
	store := &memStore{loadErr: fmt.Errorf("failed to read state file: permission denied")}
	reg := NewRegistry(store)
	require.NoError(t, reg.Register(Declaration{Name: "a"}))
	require.NoError(t, reg.Write("a", "kept"))

	restored, err := reg.Restore()
	assert.False(t, restored)
	require.Error(t, err)
	assert.True(t, IsPersistenceLoadError(err))
	assert.False(t, IsPersistenceSaveError(err))
	assert.Contains(t, err.Error(), "permission denied")

	raw, _ := reg.RawValue("a")
	assert.Equal(t, "kept", raw)
}

func TestLoadState_ReplacesValues(t *testing.T) {
	store := &memStore{values: map[string]string{"a": "restored", "retired": "old"}}
	reg := NewRegistry(store)
	require.NoError(t, reg.RegisterAll([]Declaration{{Name: "a"}, {Name: "b"}}))
	require.NoError(t, reg.Write("b", "before-load"))

	// Writing saved over the store; put the prior state back.
	store.values = map[string]string{"a": "restored", "retired": "old"}

	assert.True(t, reg.LoadState())
	assert.Equal(t, map[string]string{"a": "restored", "b": "", "retired": "old"}, reg.Values())

	_, ok := reg.RawValue("retired")
	assert.False(t, ok, "unregistered names are kept but not exposed")

	d, _ := reg.Descriptor("a")
	assert.Equal(t, TypeString, d.Type)
}

func TestDescriptors_RegistrationOrder(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.RegisterAll(ParseDeclarations("zeta, alpha, mid")))

	descs := reg.Descriptors()
	require.Len(t, descs, 3)
	assert.Equal(t, "zeta", descs[0].Name)
	assert.Equal(t, "alpha", descs[1].Name)
	assert.Equal(t, "mid", descs[2].Name)
}

func TestDescriptor_ReturnsCopy(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Declaration{Name: "l", MinValue: "1", MaxValue: "2"}))

	d, _ := reg.Descriptor("l")
	d.Bounds.Max = "999"
	d.Unit = "changed"

	again, _ := reg.Descriptor("l")
	assert.Equal(t, "2", again.Bounds.Max)
	assert.Equal(t, "", again.Unit)
}

func TestRegistry_ConcurrentWrites(t *testing.T) {
	store := &memStore{}
	reg := NewRegistry(store)
	require.NoError(t, reg.Register(Declaration{Name: "counter", DataType: DevLong}))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, reg.Write("counter", fmt.Sprintf("%d", i)))
			_, _ = reg.Read("counter")
		}()
	}
	wg.Wait()

	// The last save holds whatever value is now in memory.
	raw, _ := reg.RawValue("counter")
	assert.Equal(t, raw, store.values["counter"])
	assert.Equal(t, 50, store.saves)
}
