package affix

import "warrantboard/domain/item"

// DefaultEntries is the built-in regular affix catalog used when no catalog
// file is configured.
func DefaultEntries() []Entry {
	return []Entry{
		{ID: "flat_life_1", DisplayName: "Maximum Life", StatKey: "maximum_life", Flat: true, MinRoll: 8, MaxRoll: 20, Tags: []string{"defence", "life"}, Tier: item.RarityCommon, Weight: 100},
		{ID: "flat_life_2", DisplayName: "Maximum Life", StatKey: "maximum_life", Flat: true, MinRoll: 21, MaxRoll: 35, Tags: []string{"defence", "life"}, Tier: item.RarityMagic, Weight: 40},
		{ID: "flat_armour", DisplayName: "Armour", StatKey: "armour", Flat: true, MinRoll: 10, MaxRoll: 30, Tags: []string{"defence"}, Tier: item.RarityCommon, Weight: 80},
		{ID: "flat_damage", DisplayName: "Added Damage", StatKey: "added_damage", Flat: true, MinRoll: 2, MaxRoll: 6, Tags: []string{"attack"}, Tier: item.RarityCommon, Weight: 90},
		{ID: "inc_damage", DisplayName: "Increased Damage", StatKey: "increased_damage", MinRoll: 5, MaxRoll: 12, Tags: []string{"attack", "caster"}, Tier: item.RarityCommon, Weight: 70},
		{ID: "attack_speed", DisplayName: "Attack Speed", StatKey: "attack_speed", MinRoll: 3, MaxRoll: 7, Tags: []string{"attack", "speed"}, Tier: item.RarityMagic, Weight: 50},
		{ID: "crit_chance", DisplayName: "Critical Strike Chance", StatKey: "critical_chance", MinRoll: 4, MaxRoll: 10, Tags: []string{"critical"}, Tier: item.RarityMagic, Weight: 45},
		{ID: "elemental_res", DisplayName: "Elemental Resistance", StatKey: "elemental_resistance", MinRoll: 6, MaxRoll: 15, Tags: []string{"defence"}, Tier: item.RarityCommon, Weight: 60},
		{ID: "move_speed", DisplayName: "Movement Speed", StatKey: "movement_speed", MinRoll: 2, MaxRoll: 5, Tags: []string{"speed"}, Tier: item.RarityRare, Weight: 20},
		{ID: "socket_focus", DisplayName: "Focused Socket", StatKey: "cooldown_recovery", MinRoll: 4, MaxRoll: 8, Tags: []string{"caster"}, Tier: item.RarityRare, Weight: 15, SocketOnly: true},
	}
}

// DefaultNotables is the built-in notable catalog.
func DefaultNotables() []Notable {
	return []Notable{
		{ID: "notable_fury", DisplayName: "Fury", Weight: 30, Modifiers: []NotableModifier{
			{StatKey: "increased_damage", DisplayName: "Increased Damage", Operation: item.OpMultiplicative, Value: 15},
			{StatKey: "attack_speed", DisplayName: "Attack Speed", Operation: item.OpMultiplicative, Value: 5},
		}},
		{ID: "notable_bulwark", DisplayName: "the Bulwark", Weight: 30, Modifiers: []NotableModifier{
			{StatKey: "armour", DisplayName: "Armour", Operation: item.OpAdditive, Value: 50},
			{StatKey: "maximum_life", DisplayName: "Maximum Life", Operation: item.OpAdditive, Value: 25},
		}},
		{ID: "notable_precision", DisplayName: "Precision", Weight: 20, Modifiers: []NotableModifier{
			{StatKey: "critical_chance", DisplayName: "Critical Strike Chance", Operation: item.OpMultiplicative, Value: 20},
		}},
		{ID: "notable_overwhelm", DisplayName: "Overwhelm", Weight: 5, Modifiers: []NotableModifier{
			{StatKey: "damage_more", DisplayName: "More Damage", Operation: item.OpMore, Value: 10},
		}},
	}
}

// DefaultBlueprints is the built-in blueprint set.
func DefaultBlueprints() []item.Blueprint {
	return []item.Blueprint{
		{ID: "iron_warrant", BaseName: "Iron Warrant", RangeDepth: 1},
		{ID: "silver_warrant", BaseName: "Silver Warrant", RangeDepth: 2},
		{ID: "gilded_warrant", BaseName: "Gilded Warrant", RangeDepth: 3},
	}
}
