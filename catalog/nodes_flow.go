package catalog

import "github.com/r5vforge/r5vforge/graph"

// ============================================================================
// Entry, Event, Flow and Async Nodes
// ============================================================================

func init() {
	registerEntryNodes()
	registerEventNodes()
	registerFlowNodes()
	registerAsyncNodes()
}

func registerEntryNodes() {
	mustRegister(Definition{
		Type:        TypeInitServer,
		Category:    CategoryEntry,
		Label:       "Init Server",
		Description: "Runs when the server VM loads the script",
		Outputs:     ports(then()),
		Context:     graph.ContextServer,
		FuncSuffix:  "InitServer",
	})

	mustRegister(Definition{
		Type:        TypeInitClient,
		Category:    CategoryEntry,
		Label:       "Init Client",
		Description: "Runs when the client VM loads the script",
		Outputs:     ports(then()),
		Context:     graph.ContextClient,
		FuncSuffix:  "InitClient",
	})

	mustRegister(Definition{
		Type:        TypeInitUI,
		Category:    CategoryEntry,
		Label:       "Init UI",
		Description: "Runs when the UI VM loads the script",
		Outputs:     ports(then()),
		Context:     graph.ContextUI,
		FuncSuffix:  "InitUI",
	})
}

func registerEventNodes() {
	mustRegister(Definition{
		Type:        "event-client-connected",
		Category:    CategoryEvent,
		Label:       "On Client Connected",
		Description: "Fires when a player finishes connecting",
		Outputs:     ports(then(), out("player", graph.TypeEntity)),
		Context:     graph.ContextServer,
		Callback:    "AddCallback_OnClientConnected( {fn} )",
		Params:      []Param{{Name: "player", Type: graph.TypeEntity, Port: "player"}},
		FuncSuffix:  "OnClientConnected",
	})

	mustRegister(Definition{
		Type:        "event-client-disconnected",
		Category:    CategoryEvent,
		Label:       "On Client Disconnected",
		Description: "Fires when a player leaves the match",
		Outputs:     ports(then(), out("player", graph.TypeEntity)),
		Context:     graph.ContextServer,
		Callback:    "AddCallback_OnClientDisconnected( {fn} )",
		Params:      []Param{{Name: "player", Type: graph.TypeEntity, Port: "player"}},
		FuncSuffix:  "OnClientDisconnected",
	})

	mustRegister(Definition{
		Type:        "event-player-killed",
		Category:    CategoryEvent,
		Label:       "On Player Killed",
		Description: "Fires when a player dies",
		Outputs: ports(
			then(),
			out("victim", graph.TypeEntity),
			out("attacker", graph.TypeEntity),
			out("damageInfo", graph.TypeAny),
		),
		Context:  graph.ContextServer,
		Callback: "AddCallback_OnPlayerKilled( {fn} )",
		Params: []Param{
			{Name: "victim", Type: graph.TypeEntity, Port: "victim"},
			{Name: "attacker", Type: graph.TypeEntity, Port: "attacker"},
			{Name: "damageInfo", Type: graph.TypeAny, Port: "damageInfo"},
		},
		FuncSuffix: "OnPlayerKilled",
	})

	mustRegister(Definition{
		Type:        "event-player-respawned",
		Category:    CategoryEvent,
		Label:       "On Player Respawned",
		Description: "Fires when a player spawns or respawns",
		Outputs:     ports(then(), out("player", graph.TypeEntity)),
		Context:     graph.ContextServer,
		Callback:    "AddCallback_OnPlayerRespawned( {fn} )",
		Params:      []Param{{Name: "player", Type: graph.TypeEntity, Port: "player"}},
		FuncSuffix:  "OnPlayerRespawned",
	})

	mustRegister(Definition{
		Type:        "event-client-command",
		Category:    CategoryEvent,
		Label:       "On Client Command",
		Description: "Fires when a player runs a registered console command",
		Outputs: ports(
			then(),
			out("player", graph.TypeEntity),
			out("args", graph.TypeArray),
		),
		Defaults: map[string]any{"command": "custom_command"},
		Context:  graph.ContextServer,
		Callback: "AddClientCommandCallback( {lit.command}, {fn} )",
		Params: []Param{
			{Name: "player", Type: graph.TypeEntity, Port: "player"},
			{Name: "args", Type: graph.TypeArray, Port: "args"},
		},
		Returns:     graph.TypeBool,
		ReturnValue: "true",
		FuncSuffix:  "OnClientCommand",
	})

	mustRegister(Definition{
		Type:        "event-local-player-created",
		Category:    CategoryEvent,
		Label:       "On Local Player Created",
		Description: "Fires on the client once the local player entity exists",
		Outputs:     ports(then(), out("player", graph.TypeEntity)),
		Context:     graph.ContextClient,
		Callback:    "AddCreateCallback( \"player\", {fn} )",
		Params:      []Param{{Name: "player", Type: graph.TypeEntity, Port: "player"}},
		FuncSuffix:  "OnLocalPlayerCreated",
	})

	mustRegister(Definition{
		Type:        "event-ui-level-loaded",
		Category:    CategoryEvent,
		Label:       "On UI Level Loaded",
		Description: "Fires in the UI VM when a level finishes loading",
		Outputs:     ports(then()),
		Context:     graph.ContextUI,
		Callback:    "AddUICallback_LevelLoadingFinished( {fn} )",
		FuncSuffix:  "OnLevelLoaded",
	})
}

func registerFlowNodes() {
	mustRegister(Definition{
		Type:        "branch",
		Category:    CategoryFlow,
		Label:       "Branch",
		Description: "Runs one of two chains depending on a condition",
		Inputs:      ports(execIn(), in("condition", graph.TypeBool)),
		Outputs:     ports(execOut("true"), execOut("false")),
	})

	mustRegister(Definition{
		Type:        "sequence",
		Category:    CategoryFlow,
		Label:       "Sequence",
		Description: "Runs each output chain in port order",
		Inputs:      ports(execIn()),
		Outputs:     ports(execOut("then0"), execOut("then1"), execOut("then2")),
	})

	mustRegister(Definition{
		Type:        "loop-for",
		Category:    CategoryFlow,
		Label:       "For Loop",
		Description: "Counts from first (inclusive) to last (exclusive)",
		Inputs:      ports(execIn(), loopIn(), in("first", graph.TypeInt), in("last", graph.TypeInt)),
		Outputs:     ports(execOut("body"), execOut("completed"), out("index", graph.TypeInt)),
		Defaults:    map[string]any{"first": 0, "last": 10},
	})

	mustRegister(Definition{
		Type:        "loop-foreach",
		Category:    CategoryFlow,
		Label:       "For Each",
		Description: "Iterates over the elements of an array",
		Inputs:      ports(execIn(), loopIn(), in("array", graph.TypeArray)),
		Outputs: ports(
			execOut("body"),
			execOut("completed"),
			out("element", graph.TypeAny),
			out("index", graph.TypeInt),
		),
	})

	mustRegister(Definition{
		Type:        "loop-while",
		Category:    CategoryFlow,
		Label:       "While Loop",
		Description: "Repeats the body while the condition holds",
		Inputs:      ports(execIn(), loopIn(), in("condition", graph.TypeBool)),
		Outputs:     ports(execOut("body"), execOut("completed")),
	})

	mustRegister(Definition{
		Type:        "switch",
		Category:    CategoryFlow,
		Label:       "Switch",
		Description: "Selects a chain by value; cases come from the case list or switch-case nodes",
		Inputs:      ports(execIn(), in("value", graph.TypeAny)),
		Outputs:     ports(execOut("cases"), execOut("default")),
		Defaults:    map[string]any{"cases": []any{}},
	})

	mustRegister(Definition{
		Type:        "switch-case",
		Category:    CategoryFlow,
		Label:       "Switch Case",
		Description: "One case of a switch, attached to its cases output",
		Inputs:      ports(execIn()),
		Outputs:     ports(execOut("body")),
		Defaults:    map[string]any{"value": 0},
	})

	mustRegister(Definition{
		Type:        "switch-default",
		Category:    CategoryFlow,
		Label:       "Switch Default",
		Description: "Default case of a switch, attached to its cases output",
		Inputs:      ports(execIn()),
		Outputs:     ports(execOut("body")),
	})

	mustRegister(Definition{
		Type:        "break",
		Category:    CategoryFlow,
		Label:       "Break",
		Description: "Leaves the innermost loop",
		Inputs:      ports(execIn()),
		Stmt:        "break",
	})

	mustRegister(Definition{
		Type:        "continue",
		Category:    CategoryFlow,
		Label:       "Continue",
		Description: "Skips to the next loop iteration",
		Inputs:      ports(execIn()),
		Stmt:        "continue",
	})

	mustRegister(Definition{
		Type:        "return",
		Category:    CategoryFlow,
		Label:       "Return",
		Description: "Returns from the current function",
		Inputs:      ports(execIn()),
	})
}

func registerAsyncNodes() {
	mustRegister(Definition{
		Type:        "wait",
		Category:    CategoryAsync,
		Label:       "Wait",
		Description: "Suspends the current thread for a number of seconds",
		Inputs:      ports(execIn(), in("seconds", graph.TypeFloat)),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"seconds": 1.0},
		Stmt:        "wait {in.seconds}",
	})

	mustRegister(Definition{
		Type:        "wait-frame",
		Category:    CategoryAsync,
		Label:       "Wait Frame",
		Description: "Suspends the current thread until the next frame",
		Inputs:      ports(execIn()),
		Outputs:     ports(then()),
		Stmt:        "WaitFrame()",
	})

	mustRegister(Definition{
		Type:        "delay",
		Category:    CategoryAsync,
		Label:       "Delay",
		Description: "Runs the delayed chain in a new thread after a number of seconds; then continues immediately",
		Inputs:      ports(execIn(), in("seconds", graph.TypeFloat)),
		Outputs:     ports(then(), execOut("delayed")),
		Defaults:    map[string]any{"seconds": 1.0},
	})

	mustRegister(Definition{
		Type:        "thread",
		Category:    CategoryAsync,
		Label:       "Thread",
		Description: "Runs the body chain in a new thread; then continues immediately",
		Inputs:      ports(execIn()),
		Outputs:     ports(then(), execOut("body")),
	})

	mustRegister(Definition{
		Type:        "signal",
		Category:    CategoryAsync,
		Label:       "Signal",
		Description: "Raises a named signal on an entity",
		Inputs:      ports(execIn(), in("entity", graph.TypeEntity)),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"signal": "OnCustomSignal"},
		Stmt:        "Signal( {in.entity}, {lit.signal} )",
	})

	mustRegister(Definition{
		Type:        "wait-signal",
		Category:    CategoryAsync,
		Label:       "Wait Signal",
		Description: "Suspends the current thread until an entity raises a signal",
		Inputs:      ports(execIn(), in("entity", graph.TypeEntity)),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"signal": "OnCustomSignal"},
		Stmt:        "WaitSignal( {in.entity}, {lit.signal} )",
	})

	mustRegister(Definition{
		Type:        "end-signal",
		Category:    CategoryAsync,
		Label:       "End Signal",
		Description: "Ends the current thread when an entity raises a signal",
		Inputs:      ports(execIn(), in("entity", graph.TypeEntity)),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"signal": "OnDestroy"},
		Stmt:        "EndSignal( {in.entity}, {lit.signal} )",
	})

	mustRegister(Definition{
		Type:        "register-signal",
		Category:    CategoryAsync,
		Label:       "Register Signal",
		Description: "Registers a signal name with the VM",
		Inputs:      ports(execIn()),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"signal": "OnCustomSignal"},
		Stmt:        "RegisterSignal( {lit.signal} )",
	})
}
