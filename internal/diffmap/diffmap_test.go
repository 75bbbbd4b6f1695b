package diffmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const samplePatch = `@@ -1,4 +1,5 @@
 package main

+import "fmt"
+
 func main() {
-	println("hi")
+	fmt.Println("hi")
 }`

func TestMapNewLineToPosition_AddedLine(t *testing.T) {
	pos, ok := MapNewLineToPosition(samplePatch, 3)
	assert.True(t, ok)
	assert.Equal(t, 3, pos)
}

func TestMapNewLineToPosition_ContextLine(t *testing.T) {
	pos, ok := MapNewLineToPosition(samplePatch, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, pos)
}

func TestMapNewLineToPosition_ReplacedLine(t *testing.T) {
	pos, ok := MapNewLineToPosition(samplePatch, 6)
	assert.True(t, ok)
	assert.Equal(t, 7, pos)
}

func TestMapNewLineToPosition_NotInAnyHunk(t *testing.T) {
	_, ok := MapNewLineToPosition(samplePatch, 999)
	assert.False(t, ok)
}

func TestMapNewLineToPosition_MultipleHunksFirstMatchWins(t *testing.T) {
	patch := `@@ -1,2 +1,2 @@
 a
+b
@@ -10,2 +11,2 @@
 c
+b`
	pos, ok := MapNewLineToPosition(patch, 2)
	assert.True(t, ok)
	assert.Equal(t, 2, pos)
}
