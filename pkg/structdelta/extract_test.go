package structdelta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
	"github.com/robertoallende/coderipple-sub001/pkg/diffparse"
	"github.com/robertoallende/coderipple-sub001/pkg/structdelta"
)

func TestFamilyForPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want structdelta.Family
	}{
		{"pkg/billing/billing.go", structdelta.FamilyBrace},
		{"src/app.py", structdelta.FamilyIndent},
		{"docs/README.md", structdelta.FamilyMarkup},
		{"requirements.txt", structdelta.FamilyManifest},
		{"go.mod", structdelta.FamilyManifest},
		{"web/package.json", structdelta.FamilyManifest},
		{"mystery.zzz", structdelta.FamilyUnknown},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, structdelta.FamilyForPath(tc.path), tc.path)
	}
}

func parseOne(t *testing.T, diff string) changeset.FileChange {
	t.Helper()

	files := diffparse.Parse(diff)
	require.Len(t, files, 1)

	return files[0]
}

func TestExtractAddedGoFunction(t *testing.T) {
	t.Parallel()

	fc := parseOne(t, `diff --git a/billing.go b/billing.go
--- a/billing.go
+++ b/billing.go
@@ -5,2 +5,6 @@
 package billing

+func computeTotal(items []Item) int {
+	return 0
+}
+
`)

	delta := structdelta.Extract(fc)
	assert.True(t, delta.AddedFunctions.Has("computeTotal"))
	assert.Empty(t, delta.RemovedFunctions)
	assert.Empty(t, delta.ModifiedFunctions)
	assert.Equal(t, 1, delta.SymbolCount())
}

func TestExtractModifiedPromotion(t *testing.T) {
	t.Parallel()

	fc := parseOne(t, `diff --git a/api.go b/api.go
--- a/api.go
+++ b/api.go
@@ -10,2 +10,2 @@
-func Process(data []byte) error {
+func Process(ctx context.Context, data []byte) error {
 	// body
`)

	delta := structdelta.Extract(fc)
	assert.True(t, delta.ModifiedFunctions.Has("Process"))
	assert.False(t, delta.AddedFunctions.Has("Process"))
	assert.False(t, delta.RemovedFunctions.Has("Process"))
}

func TestExtractIdenticalLineIsMoveNotModification(t *testing.T) {
	t.Parallel()

	fc := parseOne(t, `diff --git a/api.go b/api.go
--- a/api.go
+++ b/api.go
@@ -10,2 +20,2 @@
-func Helper() {
+func Helper() {
 	// moved within the file
`)

	delta := structdelta.Extract(fc)
	assert.True(t, delta.Empty())
}

func TestExtractPythonDeclarations(t *testing.T) {
	t.Parallel()

	fc := parseOne(t, `diff --git a/app.py b/app.py
--- a/app.py
+++ b/app.py
@@ -1,1 +1,5 @@
 import os
+import json
+
+class Invoice:
+    def total(self):
`)

	delta := structdelta.Extract(fc)
	assert.True(t, delta.AddedImports.Has("json"))
	assert.True(t, delta.AddedTypes.Has("Invoice"))
	assert.True(t, delta.AddedFunctions.Has("total"))
}

func TestExtractManifestDependencyChanges(t *testing.T) {
	t.Parallel()

	fc := parseOne(t, `diff --git a/requirements.txt b/requirements.txt
--- a/requirements.txt
+++ b/requirements.txt
@@ -1,3 +1,2 @@
 flask==2.0.1
-requests==2.28.0
 click==8.1.0
`)

	delta := structdelta.Extract(fc)
	assert.Equal(t, structdelta.FamilyManifest, delta.Family)
	assert.True(t, delta.RemovedImports.Has("requests==2.28.0"))
	assert.Empty(t, delta.AddedImports)
}

func TestExtractMarkupHasNoSymbols(t *testing.T) {
	t.Parallel()

	fc := parseOne(t, `diff --git a/docs/guide.md b/docs/guide.md
--- a/docs/guide.md
+++ b/docs/guide.md
@@ -1,1 +1,2 @@
 # Guide
+def not_really_code():
`)

	delta := structdelta.Extract(fc)
	assert.True(t, delta.Empty())
	assert.Equal(t, 1, delta.AddedLines)
}

func TestExtractDeeplyIndentedLinesIgnored(t *testing.T) {
	t.Parallel()

	fc := parseOne(t, `diff --git a/app.py b/app.py
--- a/app.py
+++ b/app.py
@@ -1,1 +1,2 @@
 x = 1
+            def buried_in_a_string():
`)

	delta := structdelta.Extract(fc)
	assert.Empty(t, delta.AddedFunctions)
}

func TestExtractAllSkipsHunklessFiles(t *testing.T) {
	t.Parallel()

	files := []changeset.FileChange{
		{Path: "logo.png", Status: changeset.StatusUnparsed, Unparsed: true},
		{Path: "moved.go", Status: changeset.StatusRenamed},
	}

	assert.Empty(t, structdelta.ExtractAll(files))
}

func TestSymbolSetSorted(t *testing.T) {
	t.Parallel()

	set := structdelta.SymbolSet{}
	set.Add("zeta")
	set.Add("alpha")
	set.Add("mid")

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, set.Sorted())
}
