package entity

// TrackingState состояние трекера лица.
// Если Valid == false, Box и глаза не имеют смысла.
type TrackingState struct {
	Valid        bool
	Box          Box
	LeftEye      *Box
	RightEye     *Box
	LastScanTime int64
}

// Eyes возвращает найденные глаза (0, 1 или 2 прямоугольника)
func (s TrackingState) Eyes() []Box {
	if !s.Valid {
		return nil
	}
	eyes := make([]Box, 0, 2)
	if s.LeftEye != nil {
		eyes = append(eyes, *s.LeftEye)
	}
	if s.RightEye != nil {
		eyes = append(eyes, *s.RightEye)
	}
	return eyes
}
