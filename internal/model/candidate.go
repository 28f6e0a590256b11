package model

import "time"

// Candidate is one entry of the pool a spin draws from. Color is
// presentation-only and never influences the draw.
type Candidate struct {
	ID    string
	Name  string
	Color string
}

type Pool []Candidate

// SelectionResult is committed exactly once per spin and immutable
// afterwards. Every participant of the room renders the same instance.
type SelectionResult struct {
	RoomID  RoomID
	Items   []Candidate
	DrawnAt time.Time
}

// Catalog lists the food categories a room can filter on.
var Catalog = Pool{
	{ID: "thai", Name: "อาหารไทย"},
	{ID: "japanese", Name: "อาหารญี่ปุ่น"},
	{ID: "chinese", Name: "อาหารจีน"},
	{ID: "italian", Name: "อาหารอิตาเลียน"},
	{ID: "fastfood", Name: "ฟาสต์ฟู้ด"},
	{ID: "dessert", Name: "ของหวาน"},
	{ID: "cafe", Name: "คาเฟ่"},
	{ID: "korean", Name: "อาหารเกาหลี"},
	{ID: "indian", Name: "อาหารอินเดีย"},
	{ID: "vietnamese", Name: "อาหารเวียดนาม"},
}
