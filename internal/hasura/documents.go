package hasura

// GraphQL documents sent to the engine.
const (
	introspectionQuery = `query { __schema { queryType { name } } }`

	typenameQuery = `query { __typename }`

	getAppMetadataQuery = `
query GetVersions($env: String!) {
  app_metadata(where: {environment: {_eq: $env}}) {
    component
    version
    deployed_at
    git_commit
    metadata
  }
}`

	recordHealthSnapshotMutation = `
mutation RecordHealthSnapshot($snapshot: health_snapshots_insert_input!) {
  insert_health_snapshots_one(object: $snapshot) {
    id
    timestamp
  }
}`

	updateAppMetadataMutation = `
mutation UpdateAppMetadata($component: String!, $version: String!, $environment: String!, $git_commit: String, $metadata: jsonb) {
  insert_app_metadata_one(
    object: {
      component: $component
      version: $version
      environment: $environment
      git_commit: $git_commit
      metadata: $metadata
    }
    on_conflict: {
      constraint: app_metadata_component_environment_key
      update_columns: [version, deployed_at, git_commit, metadata]
    }
  ) {
    id
  }
}`

	createActivityMutation = `
mutation CreateActivity($activity: activity_log_insert_input!) {
  insert_activity_log_one(object: $activity) {
    id timestamp action
  }
}`

	createActivitiesMutation = `
mutation CreateBulkActivities($activities: [activity_log_insert_input!]!) {
  insert_activity_log(objects: $activities) {
    returning { id timestamp action }
    affected_rows
  }
}`

	recentActivitiesQuery = `
query GetRecentActivities($limit: Int!) {
  activity_log(order_by: {timestamp: desc}, limit: $limit) {
    id timestamp action
  }
}`

	activityStatsQuery = `
query GetActivityStats($since: timestamptz!) {
  activity_log_aggregate(where: {timestamp: {_gte: $since}}) {
    aggregate { count }
  }
  recent_actions: activity_log(
    where: {timestamp: {_gte: $since}}
    distinct_on: action
    order_by: [{action: asc}, {timestamp: desc}]
  ) {
    action
  }
}`

	activityCountQuery = `
query GetActivityCount {
  activity_log_aggregate {
    aggregate { count }
  }
}`
)
