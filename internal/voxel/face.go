package voxel

import (
	"strings"

	"github.com/annel0/unlimited-mining/internal/vec"
)

// Face - одна из шести осевых граней вокселя
type Face uint8

const (
	PosX Face = iota // Грань в положительном направлении X
	NegX             // Грань в отрицательном направлении X
	PosY             // Грань в положительном направлении Y
	NegY             // Грань в отрицательном направлении Y
	PosZ             // Грань в положительном направлении Z
	NegZ             // Грань в отрицательном направлении Z
)

// AllFaces перечисляет грани в фиксированном порядке
var AllFaces = [6]Face{PosX, NegX, PosY, NegY, PosZ, NegZ}

var faceOffsets = [6]vec.Vec3{
	PosX: {X: 1},
	NegX: {X: -1},
	PosY: {Y: 1},
	NegY: {Y: -1},
	PosZ: {Z: 1},
	NegZ: {Z: -1},
}

var faceInverts = [6]Face{
	PosX: NegX,
	NegX: PosX,
	PosY: NegY,
	NegY: PosY,
	PosZ: NegZ,
	NegZ: PosZ,
}

var faceNames = [6]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}

// Offset возвращает единичный шаг решётки в направлении грани
func (f Face) Offset() vec.Vec3 {
	return faceOffsets[f]
}

// Invert возвращает противоположную грань
func (f Face) Invert() Face {
	return faceInverts[f]
}

// Neighbor возвращает позицию соседней ячейки за гранью
func (f Face) Neighbor(pos vec.Vec3) vec.Vec3 {
	return pos.Add(faceOffsets[f])
}

func (f Face) String() string {
	if int(f) < len(faceNames) {
		return faceNames[f]
	}
	return "?"
}

// FaceSet - множество граней в виде битовой маски
type FaceSet uint8

// NewFaceSet создаёт множество из перечисленных граней
func NewFaceSet(faces ...Face) FaceSet {
	var s FaceSet
	for _, f := range faces {
		s = s.Add(f)
	}
	return s
}

// Add возвращает множество с добавленной гранью
func (s FaceSet) Add(f Face) FaceSet {
	return s | 1<<f
}

// Remove возвращает множество без грани
func (s FaceSet) Remove(f Face) FaceSet {
	return s &^ (1 << f)
}

// Has проверяет наличие грани
func (s FaceSet) Has(f Face) bool {
	return s&(1<<f) != 0
}

// Len возвращает число граней в множестве
func (s FaceSet) Len() int {
	n := 0
	for _, f := range AllFaces {
		if s.Has(f) {
			n++
		}
	}
	return n
}

// IsEmpty проверяет, пусто ли множество
func (s FaceSet) IsEmpty() bool {
	return s == 0
}

// Faces возвращает грани в порядке AllFaces
func (s FaceSet) Faces() []Face {
	faces := make([]Face, 0, 6)
	for _, f := range AllFaces {
		if s.Has(f) {
			faces = append(faces, f)
		}
	}
	return faces
}

func (s FaceSet) String() string {
	parts := make([]string, 0, 6)
	for _, f := range s.Faces() {
		parts = append(parts, f.String())
	}
	return "{" + strings.Join(parts, " ") + "}"
}
