package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the definition constructors as globals.
//
//	Game { title = "...", author = "...", version = "...", intro = "..." }
//	Grammar { prepositions = {...}, articles = {...} }
//	Domain [[ (define (domain ...) ...) ]]
//	Entity "apple" { traits = {...}, adjectives = {...} }
//	Room "kitchen" { exits = {...} }
//	Action "take" { verbs = {...}, args = "thing", pddl = [[...]], ... }
func registerAPI(L *lua.LState, coll *collector) {
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	L.SetGlobal("Grammar", L.NewFunction(func(L *lua.LState) int {
		coll.grammar = L.CheckTable(1)
		return 0
	}))

	// A game has at most one domain document; compile rejects repeats.
	L.SetGlobal("Domain", L.NewFunction(func(L *lua.LState) int {
		coll.domain = append(coll.domain, L.CheckString(1))
		return 0
	}))

	L.SetGlobal("Entity", L.NewFunction(curried(&coll.entities)))
	L.SetGlobal("Room", L.NewFunction(curried(&coll.rooms)))
	L.SetGlobal("Action", L.NewFunction(curried(&coll.actions)))
}

// curried returns a constructor of the form Kind "id" { ... }: the first
// call takes the id and returns a function that takes the table.
func curried(into *[]rawDef) lua.LGFunction {
	return func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			*into = append(*into, rawDef{id: id, table: tbl})
			return 0
		}))
		return 1
	}
}
