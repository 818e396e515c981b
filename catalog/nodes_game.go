package catalog

import "github.com/r5vforge/r5vforge/graph"

// ============================================================================
// Entity, Player, Game and UI Nodes
// ============================================================================

func init() {
	registerEntityNodes()
	registerPlayerNodes()
	registerGameNodes()
	registerUINodes()
}

func registerEntityNodes() {
	mustRegister(Definition{
		Type:        "get-health",
		Category:    CategoryEntity,
		Label:       "Get Health",
		Description: "Current health of an entity",
		Inputs:      ports(in("entity", graph.TypeEntity)),
		Outputs:     ports(out("health", graph.TypeInt)),
		Purity:      Getter,
		Expr:        "{in.entity}.GetHealth()",
	})

	mustRegister(Definition{
		Type:        "set-health",
		Category:    CategoryEntity,
		Label:       "Set Health",
		Description: "Sets the health of an entity",
		Inputs:      ports(execIn(), in("entity", graph.TypeEntity), in("health", graph.TypeInt)),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"health": 100},
		Server:      true,
		Stmt:        "{in.entity}.SetHealth( {in.health} )",
	})

	mustRegister(Definition{
		Type:        "get-origin",
		Category:    CategoryEntity,
		Label:       "Get Origin",
		Description: "World position of an entity",
		Inputs:      ports(in("entity", graph.TypeEntity)),
		Outputs:     ports(out("origin", graph.TypeVector)),
		Purity:      Getter,
		Expr:        "{in.entity}.GetOrigin()",
	})

	mustRegister(Definition{
		Type:        "set-origin",
		Category:    CategoryEntity,
		Label:       "Set Origin",
		Description: "Moves an entity",
		Inputs:      ports(execIn(), in("entity", graph.TypeEntity), in("origin", graph.TypeVector)),
		Outputs:     ports(then()),
		Server:      true,
		Stmt:        "{in.entity}.SetOrigin( {in.origin} )",
	})

	mustRegister(Definition{
		Type:        "is-alive",
		Category:    CategoryEntity,
		Label:       "Is Alive",
		Description: "Whether an entity is alive",
		Inputs:      ports(in("entity", graph.TypeEntity)),
		Outputs:     ports(out("alive", graph.TypeBool)),
		Purity:      Getter,
		Expr:        "IsAlive( {in.entity} )",
	})

	mustRegister(Definition{
		Type:        "is-valid",
		Category:    CategoryEntity,
		Label:       "Is Valid",
		Description: "Whether an entity reference is still valid",
		Inputs:      ports(in("entity", graph.TypeEntity)),
		Outputs:     ports(out("valid", graph.TypeBool)),
		Purity:      Getter,
		Expr:        "IsValid( {in.entity} )",
	})

	mustRegister(Definition{
		Type:        "kill-entity",
		Category:    CategoryEntity,
		Label:       "Kill Entity",
		Description: "Kills an entity",
		Inputs:      ports(execIn(), in("entity", graph.TypeEntity)),
		Outputs:     ports(then()),
		Server:      true,
		Stmt:        "{in.entity}.Die()",
	})

	mustRegister(Definition{
		Type:        "destroy-entity",
		Category:    CategoryEntity,
		Label:       "Destroy Entity",
		Description: "Removes an entity from the world",
		Inputs:      ports(execIn(), in("entity", graph.TypeEntity)),
		Outputs:     ports(then()),
		Stmt:        "{in.entity}.Destroy()",
	})

	mustRegister(Definition{
		Type:        "spawn-npc",
		Category:    CategoryEntity,
		Label:       "Spawn NPC",
		Description: "Creates and spawns an NPC",
		Inputs: ports(
			execIn(),
			in("origin", graph.TypeVector),
			in("angles", graph.TypeVector),
		),
		Outputs: ports(then(), out("npc", graph.TypeEntity)),
		Defaults: map[string]any{
			"npcClass":   "npc_dummie",
			"aiSettings": "npc_dummie_combat",
		},
		Context: graph.ContextServer,
		Stmt: "entity {out.npc} = CreateNPC( {lit.npcClass}, TEAM_UNASSIGNED, {in.origin}, {in.angles} )\n" +
			"SetSpawnOption_AISettings( {out.npc}, {lit.aiSettings} )\n" +
			"DispatchSpawn( {out.npc} )",
	})

	mustRegister(Definition{
		Type:        "play-sound",
		Category:    CategoryEntity,
		Label:       "Play Sound",
		Description: "Plays a sound on an entity",
		Inputs:      ports(execIn(), in("entity", graph.TypeEntity)),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"sound": "UI_InGame_FD_SliderExit"},
		Stmt:        "EmitSoundOnEntity( {in.entity}, {lit.sound} )",
	})
}

func registerPlayerNodes() {
	mustRegister(Definition{
		Type:        "get-players",
		Category:    CategoryPlayer,
		Label:       "Get Players",
		Description: "All connected players",
		Outputs:     ports(out("players", graph.TypeArray)),
		Purity:      Getter,
		Expr:        "GetPlayerArray()",
	})

	mustRegister(Definition{
		Type:        "get-local-player",
		Category:    CategoryPlayer,
		Label:       "Get Local Player",
		Description: "The player controlled by this client",
		Outputs:     ports(out("player", graph.TypeEntity)),
		Context:     graph.ContextClient,
		Purity:      Getter,
		Expr:        "GetLocalClientPlayer()",
	})

	mustRegister(Definition{
		Type:        "get-player-name",
		Category:    CategoryPlayer,
		Label:       "Get Player Name",
		Description: "Display name of a player",
		Inputs:      ports(in("player", graph.TypeEntity)),
		Outputs:     ports(out("name", graph.TypeString)),
		Purity:      Getter,
		Expr:        "{in.player}.GetPlayerName()",
	})

	mustRegister(Definition{
		Type:        "get-team",
		Category:    CategoryPlayer,
		Label:       "Get Team",
		Description: "Team of an entity",
		Inputs:      ports(in("entity", graph.TypeEntity)),
		Outputs:     ports(out("team", graph.TypeInt)),
		Purity:      Getter,
		Expr:        "{in.entity}.GetTeam()",
	})

	mustRegister(Definition{
		Type:        "set-team",
		Category:    CategoryPlayer,
		Label:       "Set Team",
		Description: "Moves an entity to a team",
		Inputs:      ports(execIn(), in("entity", graph.TypeEntity), in("team", graph.TypeInt)),
		Outputs:     ports(then()),
		Server:      true,
		Stmt:        "SetTeam( {in.entity}, {in.team} )",
	})

	mustRegister(Definition{
		Type:        "give-weapon",
		Category:    CategoryPlayer,
		Label:       "Give Weapon",
		Description: "Gives a weapon to a player",
		Inputs:      ports(execIn(), in("player", graph.TypeEntity)),
		Outputs:     ports(then(), out("weapon", graph.TypeEntity)),
		Defaults:    map[string]any{"weapon": "mp_weapon_r97"},
		Server:      true,
		Expr:        "{in.player}.GiveWeapon( {lit.weapon}, WEAPON_INVENTORY_SLOT_ANY )",
	})
}

func registerGameNodes() {
	mustRegister(Definition{
		Type:        "get-gamemode",
		Category:    CategoryGame,
		Label:       "Get Gamemode",
		Description: "Name of the running gamemode",
		Outputs:     ports(out("mode", graph.TypeString)),
		Purity:      Getter,
		Expr:        "GameRules_GetGameMode()",
	})

	mustRegister(Definition{
		Type:        "get-time",
		Category:    CategoryGame,
		Label:       "Get Time",
		Description: "Seconds since the level started",
		Outputs:     ports(out("time", graph.TypeFloat)),
		Purity:      Effect,
		Expr:        "Time()",
	})

	mustRegister(Definition{
		Type:        "send-chat",
		Category:    CategoryGame,
		Label:       "Send Chat",
		Description: "Broadcasts a chat message to every player",
		Inputs:      ports(execIn(), in("message", graph.TypeString)),
		Outputs:     ports(then()),
		Context:     graph.ContextServer,
		Stmt:        "Chat_ServerBroadcast( {in.message} )",
	})

	mustRegister(Definition{
		Type:        "server-command",
		Category:    CategoryGame,
		Label:       "Server Command",
		Description: "Runs a console command on the server",
		Inputs:      ports(execIn(), in("command", graph.TypeString)),
		Outputs:     ports(then()),
		Context:     graph.ContextServer,
		Stmt:        "ServerCommand( {in.command} )",
	})

	mustRegister(Definition{
		Type:        "client-command",
		Category:    CategoryGame,
		Label:       "Client Command",
		Description: "Runs a console command on a player's client",
		Inputs:      ports(execIn(), in("player", graph.TypeEntity), in("command", graph.TypeString)),
		Outputs:     ports(then()),
		Context:     graph.ContextServer,
		Stmt:        "ClientCommand( {in.player}, {in.command} )",
	})
}

func registerUINodes() {
	mustRegister(Definition{
		Type:        "open-menu",
		Category:    CategoryUI,
		Label:       "Open Menu",
		Description: "Pushes a menu onto the menu stack",
		Inputs:      ports(execIn()),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"menu": "MyMenu"},
		Stmt:        "AdvanceMenu( GetMenu( {lit.menu} ) )",
	})

	mustRegister(Definition{
		Type:        "close-menu",
		Category:    CategoryUI,
		Label:       "Close Menu",
		Description: "Closes the active menu",
		Inputs:      ports(execIn()),
		Outputs:     ports(then()),
		Stmt:        "CloseActiveMenu()",
	})

	mustRegister(Definition{
		Type:        "get-menu",
		Category:    CategoryUI,
		Label:       "Get Menu",
		Description: "Looks up a menu by name",
		Outputs:     ports(out("menu", graph.TypeAny)),
		Defaults:    map[string]any{"menu": "MyMenu"},
		Purity:      Getter,
		Expr:        "GetMenu( {lit.menu} )",
	})

	mustRegister(Definition{
		Type:        "set-text",
		Category:    CategoryUI,
		Label:       "Set Text",
		Description: "Sets the text of a child element of a panel",
		Inputs:      ports(execIn(), in("panel", graph.TypeAny), in("text", graph.TypeString)),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"element": "Title"},
		Stmt:        "Hud_SetText( Hud_GetChild( {in.panel}, {lit.element} ), {in.text} )",
	})
}
