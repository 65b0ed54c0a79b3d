package sqlinline

// QNotifyVideoJob is delivered to listeners only when the surrounding
// transaction commits.
const QNotifyVideoJob = `--sql d07d691b-aaa2-4746-8817-aa10a3e2e343
select pg_notify($1::text, $2::text);
`
