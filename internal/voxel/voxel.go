package voxel

// Voxel - экземпляр вокселя в решётке
type Voxel struct {
	Type     *Type   // Тип вокселя
	HP       int     // Оставшаяся прочность; отрицательная - неразрушимый
	Obscured FaceSet // Грани, за которыми есть ещё не созданные воксели
}

// New создаёт воксель с полной прочностью типа
func New(t *Type, obscured FaceSet) *Voxel {
	return &Voxel{
		Type:     t,
		HP:       t.HP,
		Obscured: obscured,
	}
}

// Breakable сообщает, можно ли разрушить воксель
func (v *Voxel) Breakable() bool {
	return v.Type.Breakable()
}

// Damage уменьшает прочность на power и возвращает true, если воксель разрушен.
// Неразрушимые воксели не меняются.
func (v *Voxel) Damage(power int) bool {
	if !v.Breakable() {
		return false
	}
	v.HP -= power
	return v.HP <= 0
}
