package shell

//buildergen:builder
type Command struct {
	Executable string
	Args       []string
	Env        []string
	CurrentDir string
}

type Unmarked struct {
	Name string
}
