package events

import (
	"time"
)

// DomainEvent is something that already happened to a player's board.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// Event type names, also used as EventBridge detail types.
const (
	TypeBoardRebuilt   = "board.rebuilt"
	TypePageCreated    = "page.created"
	TypePageActivated  = "page.activated"
	TypeNodeUnlocked   = "node.unlocked"
	TypeItemRolled     = "item.rolled"
	TypeItemAssigned   = "item.assigned"
	TypeItemUnassigned = "item.unassigned"
	TypeItemsFused     = "items.fused"
)

// BaseEvent provides common event fields. The aggregate is the player.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func base(playerID, eventType string, at time.Time) BaseEvent {
	return BaseEvent{AggregateID: playerID, EventType: eventType, Timestamp: at, Version: 1}
}

// Board Events

// BoardRebuilt is raised after a graph is rebuilt from its definition.
type BoardRebuilt struct {
	BaseEvent
	Definition string `json:"definition"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
}

// NewBoardRebuilt creates a BoardRebuilt event
func NewBoardRebuilt(playerID, definition string, nodes, edges int, at time.Time) BoardRebuilt {
	return BoardRebuilt{
		BaseEvent:  base(playerID, TypeBoardRebuilt, at),
		Definition: definition,
		Nodes:      nodes,
		Edges:      edges,
	}
}

// NodeUnlocked is raised when a page unlocks a node.
type NodeUnlocked struct {
	BaseEvent
	PageID     string `json:"page_id"`
	NodeID     string `json:"node_id"`
	PointsLeft int    `json:"points_left"`
}

// NewNodeUnlocked creates a NodeUnlocked event
func NewNodeUnlocked(playerID, pageID, nodeID string, pointsLeft int, at time.Time) NodeUnlocked {
	return NodeUnlocked{
		BaseEvent:  base(playerID, TypeNodeUnlocked, at),
		PageID:     pageID,
		NodeID:     nodeID,
		PointsLeft: pointsLeft,
	}
}

// Page Events

// PageCreated is raised when a player adds a loadout page.
type PageCreated struct {
	BaseEvent
	PageID      string `json:"page_id"`
	DisplayName string `json:"display_name"`
}

// NewPageCreated creates a PageCreated event
func NewPageCreated(playerID, pageID, name string, at time.Time) PageCreated {
	return PageCreated{
		BaseEvent:   base(playerID, TypePageCreated, at),
		PageID:      pageID,
		DisplayName: name,
	}
}

// PageActivated is raised when the active page changes.
type PageActivated struct {
	BaseEvent
	PageID string `json:"page_id"`
	Index  int    `json:"index"`
}

// NewPageActivated creates a PageActivated event
func NewPageActivated(playerID, pageID string, index int, at time.Time) PageActivated {
	return PageActivated{
		BaseEvent: base(playerID, TypePageActivated, at),
		PageID:    pageID,
		Index:     index,
	}
}

// Item Events

// ItemRolled is raised when a blueprint roll adds an item to the inventory.
type ItemRolled struct {
	BaseEvent
	ItemID      string `json:"item_id"`
	BlueprintID string `json:"blueprint_id"`
	Rarity      string `json:"rarity"`
	NotableID   string `json:"notable_id,omitempty"`
}

// NewItemRolled creates an ItemRolled event
func NewItemRolled(playerID, itemID, blueprintID, rarity, notableID string, at time.Time) ItemRolled {
	return ItemRolled{
		BaseEvent:   base(playerID, TypeItemRolled, at),
		ItemID:      itemID,
		BlueprintID: blueprintID,
		Rarity:      rarity,
		NotableID:   notableID,
	}
}

// ItemAssigned is raised when an item is socketed.
type ItemAssigned struct {
	BaseEvent
	PageID string `json:"page_id"`
	NodeID string `json:"node_id"`
	ItemID string `json:"item_id"`
}

// NewItemAssigned creates an ItemAssigned event
func NewItemAssigned(playerID, pageID, nodeID, itemID string, at time.Time) ItemAssigned {
	return ItemAssigned{
		BaseEvent: base(playerID, TypeItemAssigned, at),
		PageID:    pageID,
		NodeID:    nodeID,
		ItemID:    itemID,
	}
}

// ItemUnassigned is raised when a socket is emptied.
type ItemUnassigned struct {
	BaseEvent
	PageID string `json:"page_id"`
	NodeID string `json:"node_id"`
	ItemID string `json:"item_id"`
}

// NewItemUnassigned creates an ItemUnassigned event
func NewItemUnassigned(playerID, pageID, nodeID, itemID string, at time.Time) ItemUnassigned {
	return ItemUnassigned{
		BaseEvent: base(playerID, TypeItemUnassigned, at),
		PageID:    pageID,
		NodeID:    nodeID,
		ItemID:    itemID,
	}
}

// ItemsFused is raised when three items are consumed into a new one.
type ItemsFused struct {
	BaseEvent
	ResultID string   `json:"result_id"`
	InputIDs []string `json:"input_ids"`
	Rarity   string   `json:"rarity"`
}

// NewItemsFused creates an ItemsFused event
func NewItemsFused(playerID, resultID string, inputIDs []string, rarity string, at time.Time) ItemsFused {
	return ItemsFused{
		BaseEvent: base(playerID, TypeItemsFused, at),
		ResultID:  resultID,
		InputIDs:  inputIDs,
		Rarity:    rarity,
	}
}
