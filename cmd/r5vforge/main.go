// Command r5vforge compiles node-graph projects into R5 mods.
package main

func main() {
	Execute()
}
