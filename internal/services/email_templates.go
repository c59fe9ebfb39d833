package services

// notificationEmailHTML takes: app name, title, message, year.
const notificationEmailHTML = `<!DOCTYPE html>
<html lang="fr">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%[1]s</title>
</head>
<body style="margin:0;padding:0;background:#f4f6f8;font-family:Arial,Helvetica,sans-serif;">
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding:32px 16px;">
        <table role="presentation" width="560" cellspacing="0" cellpadding="0" style="background:#ffffff;border-radius:8px;">
          <tr>
            <td style="padding:24px 32px;border-bottom:1px solid #e5e7eb;font-size:18px;font-weight:bold;color:#111827;">%[1]s</td>
          </tr>
          <tr>
            <td style="padding:24px 32px;">
              <h2 style="margin:0 0 12px;font-size:16px;color:#111827;">%[2]s</h2>
              <p style="margin:0;font-size:14px;line-height:1.6;color:#374151;">%[3]s</p>
            </td>
          </tr>
          <tr>
            <td style="padding:16px 32px;font-size:12px;color:#9ca3af;">&copy; %[4]d %[1]s</td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

// leadReceivedEmailHTML acknowledges a public submission. Takes: app name,
// prospect full name, product, year.
const leadReceivedEmailHTML = `<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>%[1]s</title></head>
<body style="margin:0;padding:32px 16px;background:#f4f6f8;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:560px;margin:0 auto;background:#ffffff;border-radius:8px;padding:24px 32px;">
    <p style="font-size:14px;color:#374151;">Bonjour %[2]s,</p>
    <p style="font-size:14px;color:#374151;">Nous avons bien reçu votre demande concernant <strong>%[3]s</strong>. Un conseiller vous contactera très prochainement.</p>
    <p style="font-size:12px;color:#9ca3af;">&copy; %[4]d %[1]s</p>
  </div>
</body>
</html>`
