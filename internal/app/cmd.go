package app

// Command はサブコマンド名。
type Command string

const (
	CommandServe   Command = "serve"
	CommandMigrate Command = "migrate"
	// CommandLookup は残りの引数をISBNとして解決し、結果をJSONで標準出力に書き出す。
	CommandLookup Command = "lookup"
	// CommandHealthcheck はdistrolessイメージのHEALTHCHECKから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandMigrate):     CommandMigrate,
	string(CommandLookup):      CommandLookup,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は先頭の引数をサブコマンドとして解釈し、残りの引数と共に返す。
// 引数がない場合や未知のサブコマンドはserveとして扱い、残りの引数は捨てる。
func ParseCommand(args []string) (Command, []string) {
	if len(args) > 0 {
		if cmd, ok := knownCommands[args[0]]; ok {
			return cmd, args[1:]
		}
	}
	return CommandServe, nil
}
