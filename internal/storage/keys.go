package storage

// Well-known storage keys. These names are part of the on-disk format and
// must not change without a migration.
const (
	KeyUsers             = "task_manager_users"
	KeySession           = "task_manager_session"
	KeyAuthState         = "task_manager_auth_state"
	KeyAuthBackupPrefix  = "task_manager_auth_backup_"
	KeyAppState          = "task-manager-state"
	KeyMigrationDone     = "demo:migration-completed"
	KeyDeploymentVersion = "task_manager_deployment_version"
)

// NamespaceDemo prefixes every key that belongs to the demo trust domain.
const NamespaceDemo = "demo:"
