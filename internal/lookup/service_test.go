package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sha1n/winref/internal/domain"
	"github.com/sha1n/winref/internal/index"
	"github.com/sha1n/winref/internal/lookup/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func nameQuery(v string) index.Query {
	return index.NewQuery(index.Term{Field: domain.FieldName, Value: v})
}

func strPtr(s string) *string {
	return &s
}

func kernelHits() []index.Hit {
	return []index.Hit{
		{"Name": "kernel32.dll", "DirectoryName": `Windows\System32`, "OsName": "Microsoft Windows 10 Pro"},
		{"Name": "kernel32.dll", "DirectoryName": `Windows\SysWOW64`, "OsName": "Microsoft Windows 11 Pro", "Length": "2048"},
	}
}

func TestLookupHash_Dispatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	svc := NewService(searcher, nil)

	md5 := strings.Repeat("a", 32)
	sha := strings.Repeat("b", 64)

	searcher.EXPECT().
		Search(gomock.Any(), index.NewQuery(index.Term{Field: domain.FieldMD5, Value: md5}), MaxHits).
		Return([]index.Hit{{"MD5": md5, "Name": "a.dll"}}, nil)
	searcher.EXPECT().
		Search(gomock.Any(), index.NewQuery(index.Term{Field: domain.FieldSHA256, Value: sha}), MaxHits).
		Return(nil, nil)

	agg, err := svc.LookupHash(context.Background(), md5)
	require.NoError(t, err)
	assert.Equal(t, []string{md5}, agg.Values("MD5"))

	data, err := json.Marshal(agg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "KnownName")

	agg, err = svc.LookupHash(context.Background(), sha)
	require.NoError(t, err)
	assert.Empty(t, agg)
}

func TestLookupHash_InvalidLength(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewService(mocks.NewMockSearcher(ctrl), nil)

	for _, v := range []string{"", strings.Repeat("a", 31), strings.Repeat("a", 33), strings.Repeat("a", 63), strings.Repeat("a", 65)} {
		_, err := svc.LookupHash(context.Background(), v)
		assert.ErrorIs(t, err, ErrValidation, "length %d", len(v))
	}
}

func TestLookupName(t *testing.T) {
	tests := []struct {
		name          string
		lookup        NameLookup
		hits          []index.Hit
		wantKnownName bool
		wantKnownPath *bool
	}{
		{
			name:          "known without path",
			lookup:        NameLookup{Value: "kernel32.dll"},
			hits:          kernelHits(),
			wantKnownName: true,
		},
		{
			name:          "known path with drive and forward slashes",
			lookup:        NameLookup{Value: "kernel32.dll", Path: strPtr("C:/WINDOWS/System32/")},
			hits:          kernelHits(),
			wantKnownName: true,
			wantKnownPath: boolPtr(true),
		},
		{
			name:          "unknown path",
			lookup:        NameLookup{Value: "kernel32.dll", Path: strPtr(`C:\Temp`)},
			hits:          kernelHits(),
			wantKnownName: true,
			wantKnownPath: boolPtr(false),
		},
		{
			name:          "unknown name with path",
			lookup:        NameLookup{Value: "evil.dll", Path: strPtr(`C:\Windows`)},
			hits:          nil,
			wantKnownName: false,
		},
		{
			name:          "hits without directory field",
			lookup:        NameLookup{Value: "a.dll", Path: strPtr(`C:\Windows`)},
			hits:          []index.Hit{{"Name": "a.dll"}},
			wantKnownName: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			searcher := mocks.NewMockSearcher(ctrl)
			searcher.EXPECT().Search(gomock.Any(), nameQuery(tt.lookup.Value), MaxHits).Return(tt.hits, nil)

			res, err := NewService(searcher, nil).LookupName(context.Background(), tt.lookup)
			require.NoError(t, err)
			require.NotNil(t, res.KnownName)
			assert.Equal(t, tt.wantKnownName, *res.KnownName)
			assert.Equal(t, tt.wantKnownPath, res.KnownPath)
		})
	}
}

func TestLookupName_ResponseShape(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().Search(gomock.Any(), nameQuery("kernel32.dll"), MaxHits).Return(kernelHits(), nil)

	res, err := NewService(searcher, nil).LookupName(context.Background(), NameLookup{Value: "kernel32.dll"})
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Name": ["kernel32.dll"],
		"DirectoryName": ["Windows\\SysWOW64", "Windows\\System32"],
		"OsName": ["Microsoft Windows 10 Pro", "Microsoft Windows 11 Pro"],
		"KnownName": true,
		"KnownPath": null
	}`, string(data))
}

func TestLookupName_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewService(mocks.NewMockSearcher(ctrl), nil)

	_, err := svc.LookupName(context.Background(), NameLookup{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLookupName_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, domain.StorageError("search", errors.New("closed")))

	_, err := NewService(searcher, nil).LookupName(context.Background(), NameLookup{Value: "a.dll"})
	assert.ErrorIs(t, err, domain.ErrIndexStorage)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestLookupFullName(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().Search(gomock.Any(), nameQuery("kernel32.dll"), MaxHits).Return(kernelHits(), nil)

	res, err := NewService(searcher, nil).LookupFullName(context.Background(), `C:\Windows\SysWOW64\KERNEL32.DLL`)
	require.NoError(t, err)
	assert.True(t, *res.KnownName)
	require.NotNil(t, res.KnownPath)
	assert.True(t, *res.KnownPath)
}

func TestLookupFullName_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewService(mocks.NewMockSearcher(ctrl), nil)

	for _, v := range []string{"", "kernel32.dll", `C:\`, `\\`} {
		_, err := svc.LookupFullName(context.Background(), v)
		assert.ErrorIs(t, err, ErrValidation, v)
	}
}

func TestKnownName(t *testing.T) {
	dirQuery := func(name, dir string) index.Query {
		return index.NewQuery(
			index.Term{Field: domain.FieldName, Value: name},
			index.Term{Field: domain.FieldDirectoryName, Value: dir},
		)
	}

	t.Run("name only", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		searcher := mocks.NewMockSearcher(ctrl)
		searcher.EXPECT().Search(gomock.Any(), nameQuery("a.dll"), 1).Return([]index.Hit{{"Name": "a.dll"}}, nil)

		res, err := NewService(searcher, nil).KnownName(context.Background(), NameLookup{Value: "a.dll"})
		require.NoError(t, err)
		assert.True(t, *res.KnownName)
		assert.Nil(t, res.KnownPath)
	})

	t.Run("name and path", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		searcher := mocks.NewMockSearcher(ctrl)
		gomock.InOrder(
			searcher.EXPECT().Search(gomock.Any(), nameQuery("a.dll"), 1).Return([]index.Hit{{"Name": "a.dll"}}, nil),
			searcher.EXPECT().Search(gomock.Any(), dirQuery("a.dll", `windows\system32`), 1).Return(nil, nil),
		)

		res, err := NewService(searcher, nil).KnownName(context.Background(), NameLookup{Value: "a.dll", Path: strPtr(`C:\Windows\System32\`)})
		require.NoError(t, err)
		assert.True(t, *res.KnownName)
		require.NotNil(t, res.KnownPath)
		assert.False(t, *res.KnownPath)
	})

	t.Run("unknown name never has known path", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		searcher := mocks.NewMockSearcher(ctrl)
		searcher.EXPECT().Search(gomock.Any(), nameQuery("x.dll"), 1).Return(nil, nil)

		res, err := NewService(searcher, nil).KnownName(context.Background(), NameLookup{Value: "x.dll", Path: strPtr(`C:\Windows`)})
		require.NoError(t, err)
		assert.False(t, *res.KnownName)
		require.NotNil(t, res.KnownPath)
		assert.False(t, *res.KnownPath)
	})
}

func TestKnownName_DriveRoot(t *testing.T) {
	rootHits := []index.Hit{
		{"Name": "bootmgr", "DirectoryName": `Windows\Boot`},
		{"Name": "bootmgr", "DirectoryName": ""},
	}

	t.Run("root directory", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		searcher := mocks.NewMockSearcher(ctrl)
		gomock.InOrder(
			searcher.EXPECT().Search(gomock.Any(), nameQuery("bootmgr"), 1).Return(rootHits[:1], nil),
			searcher.EXPECT().Search(gomock.Any(), nameQuery("bootmgr"), MaxHits).Return(rootHits, nil),
		)

		res, err := NewService(searcher, nil).KnownName(context.Background(), NameLookup{Value: "bootmgr", Path: strPtr(`C:\`)})
		require.NoError(t, err)
		assert.True(t, *res.KnownName)
		require.NotNil(t, res.KnownPath)
		assert.True(t, *res.KnownPath)
	})

	t.Run("not in root directory", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		searcher := mocks.NewMockSearcher(ctrl)
		gomock.InOrder(
			searcher.EXPECT().Search(gomock.Any(), nameQuery("bootmgr"), 1).Return(rootHits[:1], nil),
			searcher.EXPECT().Search(gomock.Any(), nameQuery("bootmgr"), MaxHits).Return(rootHits[:1], nil),
		)

		res, err := NewService(searcher, nil).KnownName(context.Background(), NameLookup{Value: "bootmgr", Path: strPtr("")})
		require.NoError(t, err)
		require.NotNil(t, res.KnownPath)
		assert.False(t, *res.KnownPath)
	})
}

func TestDriveRootAgreesAcrossLookups(t *testing.T) {
	hits := []index.Hit{{"Name": "bootmgr", "DirectoryName": ""}}
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().Search(gomock.Any(), nameQuery("bootmgr"), gomock.Any()).Return(hits, nil).AnyTimes()
	svc := NewService(searcher, nil)

	resolved, err := svc.LookupFullName(context.Background(), `C:\bootmgr`)
	require.NoError(t, err)
	require.NotNil(t, resolved.KnownPath)
	assert.True(t, *resolved.KnownPath)

	known, err := svc.KnownFullName(context.Background(), `C:\bootmgr`)
	require.NoError(t, err)
	require.NotNil(t, known.KnownPath)
	assert.True(t, *known.KnownPath)
}

func TestKnownFullName(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	gomock.InOrder(
		searcher.EXPECT().Search(gomock.Any(), nameQuery("notepad.exe"), 1).Return([]index.Hit{{"Name": "notepad.exe"}}, nil),
		searcher.EXPECT().Search(gomock.Any(), gomock.Any(), 1).Return([]index.Hit{{"Name": "notepad.exe"}}, nil),
	)

	res, err := NewService(searcher, nil).KnownFullName(context.Background(), `c:/windows/notepad.exe`)
	require.NoError(t, err)
	assert.True(t, *res.KnownName)
	assert.True(t, *res.KnownPath)

	_, err = NewService(searcher, nil).KnownFullName(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}
