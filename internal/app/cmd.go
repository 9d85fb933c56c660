package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はフィードAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は期限切れセッションのクリーンアップワーカーとして起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate は埋め込みスキーママイグレーションを適用することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は/healthzへの疎通確認のみを行うことを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数から起動モードを解析する。
// 引数なしおよび未知のコマンドはサーバーモードにフォールバックする。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch cmd := Command(args[0]); cmd {
	case CommandServe, CommandWorker, CommandMigrate, CommandHealthcheck:
		return cmd
	default:
		return CommandServe
	}
}
