package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFromNames_ClassifiesAndSorts(t *testing.T) {
	s, err := SchemaFromNames([]string{"SHA256", "OsName", "Name", "DirectoryName", "MD5", "FullName", "Length"})
	require.NoError(t, err)

	assert.Equal(t, []string{"DirectoryName", "FullName", "Length", "MD5", "Name", "OsName", "SHA256"}, s.Names())

	for _, name := range ExactFields {
		f, ok := s.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, KindExact, f.Kind, name)
	}
	for _, name := range []string{"FullName", "Length", "OsName"} {
		f, ok := s.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, KindStored, f.Kind, name)
	}
}

func TestSchemaFromNames_DropsDenylisted(t *testing.T) {
	s, err := SchemaFromNames([]string{"Name", "Attributes", "Sddl", "LastAccessTimeUtc", "LastWriteTimeUtc", "Name", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name"}, s.Names())
}

func TestSchemaFromNames_Empty(t *testing.T) {
	_, err := SchemaFromNames([]string{"Attributes", "Sddl"})
	assert.ErrorIs(t, err, ErrEmptySchema)

	_, err = SchemaFromNames(nil)
	assert.ErrorIs(t, err, ErrEmptySchema)
}

func TestSchemaFromNames_OrderIndependent(t *testing.T) {
	a, err := SchemaFromNames([]string{"Name", "MD5", "OsVersion", "Length"})
	require.NoError(t, err)
	b, err := SchemaFromNames([]string{"Length", "OsVersion", "MD5", "Name"})
	require.NoError(t, err)
	assert.Equal(t, a.Fields(), b.Fields())
}

func TestNewSchema_RejectsDuplicates(t *testing.T) {
	_, err := NewSchema([]Field{{Name: "Name", Kind: KindExact}, {Name: "Name", Kind: KindStored}})
	assert.Error(t, err)

	_, err = NewSchema([]Field{{Name: "", Kind: KindExact}})
	assert.Error(t, err)
}

func TestNewDocument_ValidatesFields(t *testing.T) {
	s, err := SchemaFromNames([]string{"Name", "MD5"})
	require.NoError(t, err)

	doc, err := NewDocument(s, "id-1", map[string]string{"Name": "kernel32.dll"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", doc.ID)
	assert.Equal(t, "kernel32.dll", doc.Fields["Name"])

	_, err = NewDocument(s, "id-2", map[string]string{"Unknown": "x"})
	assert.Error(t, err)

	_, err = NewDocument(s, "", map[string]string{"Name": "x"})
	assert.Error(t, err)
}

func TestDocument_Size(t *testing.T) {
	doc := Document{ID: "ab", Fields: map[string]string{"Name": "x.dll"}}
	assert.Equal(t, 2+4+5, doc.Size())
}

func TestFieldKind_JSON(t *testing.T) {
	data, err := json.Marshal([]Field{{Name: "Name", Kind: KindExact}, {Name: "OsName", Kind: KindStored}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Name","kind":"exact"},{"name":"OsName","kind":"stored"}]`, string(data))

	var decoded []Field
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, KindExact, decoded[0].Kind)
	assert.Equal(t, KindStored, decoded[1].Kind)

	var k FieldKind
	assert.Error(t, json.Unmarshal([]byte(`"fuzzy"`), &k))
}

func TestUnitError(t *testing.T) {
	cause := errors.New("two csv files")
	err := NewUnitError(KindDiscovery, "/corpus/a", cause)

	assert.Equal(t, "discovery error in /corpus/a: two csv files", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsUnitErrorKind(err, KindDiscovery))
	assert.False(t, IsUnitErrorKind(err, KindDecode))
	assert.False(t, IsUnitErrorKind(cause, KindDiscovery))
}

func TestStorageError(t *testing.T) {
	assert.NoError(t, StorageError("commit", nil))

	cause := errors.New("disk full")
	err := StorageError("commit", cause)
	assert.ErrorIs(t, err, ErrIndexStorage)
	assert.ErrorIs(t, err, cause)
}
