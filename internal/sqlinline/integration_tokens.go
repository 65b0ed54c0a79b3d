package sqlinline

const QSelectIntegrationToken = `--sql 5411825b-6e0a-4379-baad-1eb79d5de9e9
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql 5cda2ab7-45c0-4e5a-9a54-1212ce882e14
insert into integration_tokens (provider, token, properties, created_at, updated_at)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`

const QDeleteIntegrationToken = `--sql af7f8d74-3b0e-489a-8007-2a57b58d19e4
delete from integration_tokens
where provider = $1::text;
`
