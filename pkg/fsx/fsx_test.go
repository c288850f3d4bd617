package fsx_test

import (
	"context"
	"strings"
	"testing"

	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/fsx"
	"github.com/Abraxas-365/cae/pkg/fsx/fsxmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, "documents/t1/COMPANY/c1/a.pdf", fsx.Join("/documents/", "t1", "", "COMPANY", "c1/", "a.pdf"))
	assert.Equal(t, "", fsx.Join())
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", fsx.ContentType("x.PDF"))
	assert.Equal(t, "image/jpeg", fsx.ContentType("x.jpeg"))
	assert.Equal(t, "image/png", fsx.ContentType("a/b/x.png"))
	assert.Equal(t, "application/octet-stream", fsx.ContentType("x"))
}

func TestMemFileSystem(t *testing.T) {
	ctx := context.Background()
	fs := fsxmem.New()

	name := fs.Join("documents", "t1", "doc.pdf")
	require.NoError(t, fs.WriteFileStream(ctx, name, strings.NewReader("%PDF-1.4")))

	ok, err := fs.Exists(ctx, name)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := fs.ReadFile(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	info, err := fs.Stat(ctx, name)
	require.NoError(t, err)
	assert.EqualValues(t, 8, info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)

	require.NoError(t, fs.DeleteFile(ctx, name))
	_, err = fs.ReadFile(ctx, name)
	assert.True(t, errx.IsCode(err, fsx.CodeFileNotFound))
	assert.Equal(t, 0, fs.Len())
}
