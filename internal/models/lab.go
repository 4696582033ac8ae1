package models

import "time"

// Lab represents a laboratory course requiring a specific equipment tag.
type Lab struct {
	ID                   string    `db:"id" json:"id"`
	Shortform            string    `db:"shortform" json:"shortform"`
	Semester             int       `db:"semester" json:"semester"`
	Term                 TermParity `db:"term" json:"term"`
	RequiredEquipmentTag string    `db:"required_equipment_tag" json:"required_equipment_tag"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// LabFilter captures supported filters for listing labs.
type LabFilter struct {
	Semester  int
	Term      TermParity
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Classroom is a generic theory room.
type Classroom struct {
	ID        string    `db:"id" json:"id"`
	Number    string    `db:"number" json:"number"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LabRoom is a lab-equipped room, tagged with the equipment it supports.
type LabRoom struct {
	ID        string    `db:"id" json:"id"`
	Number    string    `db:"number" json:"number"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LabRoomEquipment is one (lab_room_id, equipment_tag) capability row.
type LabRoomEquipment struct {
	LabRoomID     string `db:"lab_room_id" json:"lab_room_id"`
	EquipmentTag  string `db:"equipment_tag" json:"equipment_tag"`
}
