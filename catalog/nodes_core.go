package catalog

import "github.com/r5vforge/r5vforge/graph"

// ============================================================================
// Core, Constant, Math, Logic and String Nodes
// ============================================================================

func init() {
	registerCoreNodes()
	registerConstantNodes()
	registerMathNodes()
	registerLogicNodes()
	registerStringNodes()
}

func registerCoreNodes() {
	mustRegister(Definition{
		Type:        "print",
		Category:    CategoryCore,
		Label:       "Print",
		Description: "Prints a message to the console",
		Inputs:      ports(execIn(), in("message", graph.TypeString)),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"message": "Hello World"},
		Stmt:        "printt( {in.message} )",
	})

	mustRegister(Definition{
		Type:        "declare-variable",
		Category:    CategoryCore,
		Label:       "Declare Variable",
		Description: "Declares a local variable with an initial value",
		Inputs:      ports(execIn(), in("value", graph.TypeAny)),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"name": "myVar", "varType": "var"},
		Stmt:        "{data.varType} {data.name} = {in.value}",
		Enums: map[string][]string{
			"varType": {"var", "int", "float", "bool", "string", "vector", "entity", "array", "table"},
		},
		Idents: []string{"name"},
	})

	mustRegister(Definition{
		Type:        "set-variable",
		Category:    CategoryCore,
		Label:       "Set Variable",
		Description: "Assigns a value to a variable",
		Inputs:      ports(execIn(), in("value", graph.TypeAny)),
		Outputs:     ports(then()),
		Defaults:    map[string]any{"name": "myVar"},
		Stmt:        "{data.name} = {in.value}",
		Idents:      []string{"name"},
	})

	mustRegister(Definition{
		Type:        "get-variable",
		Category:    CategoryCore,
		Label:       "Get Variable",
		Description: "Reads a variable",
		Outputs:     ports(out("value", graph.TypeAny)),
		Defaults:    map[string]any{"name": "myVar"},
		Purity:      Getter,
		Expr:        "{data.name}",
		Idents:      []string{"name"},
	})

	mustRegister(Definition{
		Type:        "call-function",
		Category:    CategoryCore,
		Label:       "Call Function",
		Description: "Calls a script function with up to three arguments",
		Inputs: ports(
			execIn(),
			in("arg0", graph.TypeAny),
			in("arg1", graph.TypeAny),
			in("arg2", graph.TypeAny),
		),
		Outputs:  ports(then(), out("result", graph.TypeAny)),
		Defaults: map[string]any{"function": "MyFunction"},
		Idents:   []string{"function"},
	})
}

func registerConstantNodes() {
	constant := func(t, label string, vt graph.ValueType, def any) {
		mustRegister(Definition{
			Type:        t,
			Category:    CategoryConstant,
			Label:       label,
			Description: "A constant " + string(vt) + " value",
			Outputs:     ports(out("value", vt)),
			Defaults:    map[string]any{"value": def},
			Purity:      Literal,
		})
	}
	constant("const-int", "Integer", graph.TypeInt, 0)
	constant("const-float", "Float", graph.TypeFloat, 0.0)
	constant("const-string", "String", graph.TypeString, "")
	constant("const-bool", "Boolean", graph.TypeBool, false)
	constant("const-vector", "Vector", graph.TypeVector, map[string]any{"x": 0.0, "y": 0.0, "z": 0.0})
}

func registerMathNodes() {
	binary := func(t, label, op string, vt graph.ValueType) {
		mustRegister(Definition{
			Type:        t,
			Category:    CategoryMath,
			Label:       label,
			Description: "Computes a " + op + " b",
			Inputs:      ports(in("a", vt), in("b", vt)),
			Outputs:     ports(out("result", vt)),
			Purity:      Pure,
			Expr:        "( {in.a} " + op + " {in.b} )",
		})
	}
	binary("add", "Add", "+", graph.TypeFloat)
	binary("subtract", "Subtract", "-", graph.TypeFloat)
	binary("multiply", "Multiply", "*", graph.TypeFloat)
	binary("divide", "Divide", "/", graph.TypeFloat)
	binary("modulo", "Modulo", "%", graph.TypeInt)

	mustRegister(Definition{
		Type:        "random-int",
		Category:    CategoryMath,
		Label:       "Random Int",
		Description: "Random integer in [0, max)",
		Inputs:      ports(in("max", graph.TypeInt)),
		Outputs:     ports(out("result", graph.TypeInt)),
		Defaults:    map[string]any{"max": 100},
		Purity:      Effect,
		Expr:        "RandomInt( {in.max} )",
	})

	mustRegister(Definition{
		Type:        "random-float",
		Category:    CategoryMath,
		Label:       "Random Float",
		Description: "Random float in [min, max)",
		Inputs:      ports(in("min", graph.TypeFloat), in("max", graph.TypeFloat)),
		Outputs:     ports(out("result", graph.TypeFloat)),
		Defaults:    map[string]any{"min": 0.0, "max": 1.0},
		Purity:      Effect,
		Expr:        "RandomFloatRange( {in.min}, {in.max} )",
	})

	mustRegister(Definition{
		Type:        "make-vector",
		Category:    CategoryMath,
		Label:       "Make Vector",
		Description: "Builds a vector from three components",
		Inputs:      ports(in("x", graph.TypeFloat), in("y", graph.TypeFloat), in("z", graph.TypeFloat)),
		Outputs:     ports(out("vector", graph.TypeVector)),
		Purity:      Pure,
		Expr:        "< {in.x}, {in.y}, {in.z} >",
	})

	mustRegister(Definition{
		Type:        "vector-length",
		Category:    CategoryMath,
		Label:       "Vector Length",
		Description: "Length of a vector",
		Inputs:      ports(in("vector", graph.TypeVector)),
		Outputs:     ports(out("length", graph.TypeFloat)),
		Purity:      Pure,
		Expr:        "Length( {in.vector} )",
	})

	mustRegister(Definition{
		Type:        "distance",
		Category:    CategoryMath,
		Label:       "Distance",
		Description: "Distance between two points",
		Inputs:      ports(in("a", graph.TypeVector), in("b", graph.TypeVector)),
		Outputs:     ports(out("distance", graph.TypeFloat)),
		Purity:      Pure,
		Expr:        "Distance( {in.a}, {in.b} )",
	})
}

func registerLogicNodes() {
	mustRegister(Definition{
		Type:        "compare",
		Category:    CategoryLogic,
		Label:       "Compare",
		Description: "Compares two values",
		Inputs:      ports(in("a", graph.TypeAny), in("b", graph.TypeAny)),
		Outputs:     ports(out("result", graph.TypeBool)),
		Defaults:    map[string]any{"op": "=="},
		Purity:      Pure,
		Expr:        "( {in.a} {data.op} {in.b} )",
		Enums:       map[string][]string{"op": {"==", "!=", "<", "<=", ">", ">="}},
	})

	mustRegister(Definition{
		Type:        "and",
		Category:    CategoryLogic,
		Label:       "And",
		Description: "Logical and",
		Inputs:      ports(in("a", graph.TypeBool), in("b", graph.TypeBool)),
		Outputs:     ports(out("result", graph.TypeBool)),
		Purity:      Pure,
		Expr:        "( {in.a} && {in.b} )",
	})

	mustRegister(Definition{
		Type:        "or",
		Category:    CategoryLogic,
		Label:       "Or",
		Description: "Logical or",
		Inputs:      ports(in("a", graph.TypeBool), in("b", graph.TypeBool)),
		Outputs:     ports(out("result", graph.TypeBool)),
		Purity:      Pure,
		Expr:        "( {in.a} || {in.b} )",
	})

	mustRegister(Definition{
		Type:        "not",
		Category:    CategoryLogic,
		Label:       "Not",
		Description: "Logical negation",
		Inputs:      ports(in("value", graph.TypeBool)),
		Outputs:     ports(out("result", graph.TypeBool)),
		Purity:      Pure,
		Expr:        "!( {in.value} )",
	})
}

func registerStringNodes() {
	mustRegister(Definition{
		Type:        "concat",
		Category:    CategoryString,
		Label:       "Concat",
		Description: "Joins two strings",
		Inputs:      ports(in("a", graph.TypeString), in("b", graph.TypeString)),
		Outputs:     ports(out("result", graph.TypeString)),
		Purity:      Pure,
		Expr:        "( {in.a} + {in.b} )",
	})

	mustRegister(Definition{
		Type:        "to-string",
		Category:    CategoryString,
		Label:       "To String",
		Description: "Converts a value to a string",
		Inputs:      ports(in("value", graph.TypeAny)),
		Outputs:     ports(out("result", graph.TypeString)),
		Purity:      Pure,
		Expr:        "string( {in.value} )",
	})

	mustRegister(Definition{
		Type:        "format",
		Category:    CategoryString,
		Label:       "Format",
		Description: "Formats two values with a printf-style template",
		Inputs:      ports(in("a", graph.TypeAny), in("b", graph.TypeAny)),
		Outputs:     ports(out("result", graph.TypeString)),
		Defaults:    map[string]any{"template": "%s %s"},
		Purity:      Pure,
		Expr:        "format( {lit.template}, {in.a}, {in.b} )",
	})
}
